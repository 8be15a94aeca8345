package grid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-grid/grid"
)

func TestSlotIndex_CalendarYear(t *testing.T) {
	si := grid.BuildSlotIndex(2025, 0)

	assert.Equal(t, 365, si.Len())
	assert.Equal(t, "2025-01-01", si.DateAt(0))
	assert.Equal(t, "2025-12-31", si.DateAt(364))
	assert.Equal(t, "", si.DateAt(365))
	assert.Equal(t, "", si.DateAt(-1))
	assert.Equal(t, "01", si.DayAt(31))

	slot, ok := si.SlotOf("2025-02-01")
	require.True(t, ok)
	assert.Equal(t, 31, slot)
	_, ok = si.SlotOf("2026-01-01")
	assert.False(t, ok)
}

func TestSlotIndex_LeapYear(t *testing.T) {
	si := grid.BuildSlotIndex(2024, 0)

	assert.Equal(t, 366, si.Len())
	assert.Equal(t, "2024-02-29", si.DateAt(59))
}

func TestSlotIndex_SlotsAreContiguousDays(t *testing.T) {
	// GIVEN: a window crossing the year boundary
	si := grid.BuildSlotIndex(2025, 3)

	// THEN: every slot is exactly one day after the previous one
	prev, err := time.Parse(grid.DateLayout, si.DateAt(0))
	require.NoError(t, err)
	for slot := 1; slot < si.Len(); slot++ {
		d, err := time.Parse(grid.DateLayout, si.DateAt(slot))
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, d.Sub(prev), "slot %d", slot)
		prev = d
	}
}

func TestSlotIndex_OffsetWindow(t *testing.T) {
	si := grid.BuildSlotIndex(2025, 3)

	assert.Equal(t, 365, si.Len())
	assert.Equal(t, "2025-04-01", si.DateAt(0))
	assert.Equal(t, "2026-01-01", si.DateAt(275))
	assert.Equal(t, "2026-03-31", si.DateAt(364))

	months := si.Months()
	require.Len(t, months, 12)
	assert.Equal(t, grid.MonthGroup{Year: 2025, Month: time.April, StartSlot: 0, Colspan: 30}, months[0])
	assert.Equal(t, grid.MonthGroup{Year: 2026, Month: time.March, StartSlot: 334, Colspan: 31}, months[11])

	colspan := 0
	for _, m := range months {
		colspan += m.Colspan
	}
	assert.Equal(t, si.Len(), colspan)
}

func TestSlotIndex_OffsetIsNormalized(t *testing.T) {
	assert.Equal(t, "2025-04-01", grid.BuildSlotIndex(2025, 15).DateAt(0))
	assert.Equal(t, "2025-04-01", grid.BuildSlotIndex(2025, -9).DateAt(0))
	assert.Equal(t, 3, grid.BuildSlotIndex(2025, -9).OffsetMonths)
}

func TestQuarterGroups_UseCalendarQuarter(t *testing.T) {
	// GIVEN: a window starting in April
	groups := grid.QuarterGroups(grid.BuildSlotIndex(2025, 3).Months())

	// THEN: the first header is Q2, never Q1
	require.Len(t, groups, 4)
	assert.Equal(t, 2, groups[0].Quarter)
	assert.Equal(t, 2025, groups[0].Year)
	assert.Equal(t, 91, groups[0].Colspan)
	assert.Equal(t, []time.Month{time.April, time.May, time.June}, groups[0].Months)

	assert.Equal(t, 1, groups[3].Quarter)
	assert.Equal(t, 2026, groups[3].Year)
	assert.Equal(t, 90, groups[3].Colspan)
}

func TestQuarterOfMonth(t *testing.T) {
	tests := map[time.Month]int{
		time.January: 1, time.March: 1, time.April: 2,
		time.September: 3, time.October: 4, time.December: 4,
	}
	for m, want := range tests {
		assert.Equal(t, want, grid.QuarterOfMonth(m), m.String())
	}
}
