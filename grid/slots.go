package grid

import (
	"fmt"
	"time"
)

// =============================================================================
// SLOT INDEX - Contiguous day columns of a displayed year
// =============================================================================

// SlotIndex maps column slots to calendar days. Slot 0 is the first day of
// the window and every following slot is exactly one calendar day later.
// Computed once per (year, offset) and immutable afterwards.
type SlotIndex struct {
	Year         int
	OffsetMonths int
	MonthGroups  []MonthGroup

	dates []string
	days  []string
	index map[string]int
}

// MonthGroup is a run of consecutive slots in the same calendar month.
type MonthGroup struct {
	Year      int
	Month     time.Month
	StartSlot int
	Colspan   int
}

// BuildSlotIndex returns the slot index of a twelve month window that
// starts offsetMonths months into year. Windows with an offset wrap into
// the next year, which lets a second table compare quarters across the
// year boundary.
func BuildSlotIndex(year, offsetMonths int) *SlotIndex {
	offsetMonths = ((offsetMonths % 12) + 12) % 12
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, offsetMonths, 0)
	end := start.AddDate(1, 0, 0)

	si := &SlotIndex{
		Year:         year,
		OffsetMonths: offsetMonths,
		index:        make(map[string]int, 366),
	}

	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		slot := len(si.dates)
		date := d.Format(DateLayout)
		si.dates = append(si.dates, date)
		si.days = append(si.days, fmt.Sprintf("%02d", d.Day()))
		si.index[date] = slot

		n := len(si.MonthGroups)
		if n > 0 && si.MonthGroups[n-1].Month == d.Month() && si.MonthGroups[n-1].Year == d.Year() {
			si.MonthGroups[n-1].Colspan++
			continue
		}
		si.MonthGroups = append(si.MonthGroups, MonthGroup{
			Year:      d.Year(),
			Month:     d.Month(),
			StartSlot: slot,
			Colspan:   1,
		})
	}
	return si
}

// Len returns the number of slots.
func (si *SlotIndex) Len() int { return len(si.dates) }

// Contains reports whether slot lies inside the window.
func (si *SlotIndex) Contains(slot int) bool { return slot >= 0 && slot < len(si.dates) }

// DateAt returns the YYYY-MM-DD date of slot, or "" outside the window.
func (si *SlotIndex) DateAt(slot int) string {
	if !si.Contains(slot) {
		return ""
	}
	return si.dates[slot]
}

// DayAt returns the two-digit day-of-month label of slot.
func (si *SlotIndex) DayAt(slot int) string {
	if !si.Contains(slot) {
		return ""
	}
	return si.days[slot]
}

// SlotOf returns the slot of a date.
func (si *SlotIndex) SlotOf(date string) (int, bool) {
	slot, ok := si.index[date]
	return slot, ok
}

// Dates returns a copy of all slot dates in order.
func (si *SlotIndex) Dates() []string {
	return append([]string(nil), si.dates...)
}

// Months returns the ordered month sequence of the window.
func (si *SlotIndex) Months() []MonthGroup {
	return append([]MonthGroup(nil), si.MonthGroups...)
}

// =============================================================================
// QUARTERS
// =============================================================================

// QuarterGroup is a run of consecutive months in the same calendar quarter.
type QuarterGroup struct {
	Year    int
	Quarter int
	Months  []time.Month
	Colspan int
}

// QuarterOfMonth returns the calendar quarter (1..4) of a month.
func QuarterOfMonth(m time.Month) int {
	return (int(m)-1)/3 + 1
}

// QuarterGroups groups an ordered month sequence into quarter runs.
// The quarter comes from the calendar month itself, never from a running
// counter, so a window that starts in April opens with Q2.
func QuarterGroups(months []MonthGroup) []QuarterGroup {
	var groups []QuarterGroup
	for _, m := range months {
		q := QuarterOfMonth(m.Month)
		n := len(groups)
		if n > 0 && groups[n-1].Quarter == q && groups[n-1].Year == m.Year {
			groups[n-1].Months = append(groups[n-1].Months, m.Month)
			groups[n-1].Colspan += m.Colspan
			continue
		}
		groups = append(groups, QuarterGroup{
			Year:    m.Year,
			Quarter: q,
			Months:  []time.Month{m.Month},
			Colspan: m.Colspan,
		})
	}
	return groups
}
