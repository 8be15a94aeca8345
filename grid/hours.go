package grid

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS TABLE & NORMS
// =============================================================================

// HoursTable maps a status code to worked hours. Unknown codes are 0.
type HoursTable map[Code]decimal.Decimal

// Of returns the hours of a code.
func (h HoursTable) Of(c Code) decimal.Decimal {
	if v, ok := h[c]; ok {
		return v
	}
	return decimal.Zero
}

// Norms holds the expected hours per calendar month.
type Norms map[time.Month]decimal.Decimal

// Quarter sums the norm of the quarter's three months.
func (n Norms) Quarter(q int) decimal.Decimal {
	sum := decimal.Zero
	first := time.Month((q-1)*3 + 1)
	for m := first; m < first+3; m++ {
		if v, ok := n[m]; ok {
			sum = sum.Add(v)
		}
	}
	return sum
}

// QuarterKey builds the summary key employeeId + "-Q" + quarter.
func QuarterKey(emp EmployeeID, q int) string {
	return string(emp) + "-Q" + strconv.Itoa(q)
}

// QuarterOfDate returns the year and calendar quarter of a YYYY-MM-DD date.
func QuarterOfDate(date string) (year, quarter int, ok bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), QuarterOfMonth(t.Month()), true
}

// =============================================================================
// AGGREGATOR - Per employee per quarter worked hours
// =============================================================================

// Aggregator maintains quarter totals of worked hours.
//
// Totals can be rebuilt from scratch (Recompute) or maintained from
// transitions (Apply). Both paths produce identical maps: zero totals are
// never stored, and decimal arithmetic keeps sums exact.
//
// With a nonzero year, dates of other years are ignored. The offset table
// shows months of the following year, which must not fold into this
// year's quarters.
type Aggregator struct {
	hours  HoursTable
	year   int
	totals map[string]decimal.Decimal
}

// NewAggregator returns an empty aggregator over an hours table.
// year 0 counts every date.
func NewAggregator(hours HoursTable, year int) *Aggregator {
	return &Aggregator{hours: hours, year: year, totals: make(map[string]decimal.Decimal)}
}

// Recompute scans every entry and rebuilds all totals.
func (a *Aggregator) Recompute(entries Entries) {
	totals := make(map[string]decimal.Decimal)
	for k, code := range entries {
		h := a.hours.Of(code)
		if h.IsZero() {
			continue
		}
		qk, ok := a.quarterKeyOf(k)
		if !ok {
			continue
		}
		totals[qk] = totals[qk].Add(h)
	}
	for qk, v := range totals {
		if v.IsZero() {
			delete(totals, qk)
		}
	}
	a.totals = totals
}

// Apply adds hoursOf(new) - hoursOf(old) to each affected key. Only keys
// touched by changes are visited.
func (a *Aggregator) Apply(changes []Change) {
	for _, c := range changes {
		delta := a.hours.Of(c.New).Sub(a.hours.Of(c.Old))
		if delta.IsZero() {
			continue
		}
		qk, ok := a.quarterKeyOf(c.Key)
		if !ok {
			continue
		}
		next := a.totals[qk].Add(delta)
		if next.IsZero() {
			delete(a.totals, qk)
			continue
		}
		a.totals[qk] = next
	}
}

// SetHours swaps the hours table and recomputes from entries.
func (a *Aggregator) SetHours(hours HoursTable, entries Entries) {
	a.hours = hours
	a.Recompute(entries)
}

// Total returns the worked hours of one employee in one quarter.
func (a *Aggregator) Total(emp EmployeeID, q int) decimal.Decimal {
	return a.totals[QuarterKey(emp, q)]
}

// Totals returns a copy of all nonzero totals keyed by QuarterKey.
func (a *Aggregator) Totals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a.totals))
	for k, v := range a.totals {
		out[k] = v
	}
	return out
}

// QuarterSummary is one fact-vs-norm cell of the summary columns.
type QuarterSummary struct {
	Employee EmployeeID
	Quarter  int
	Fact     decimal.Decimal
	Norm     decimal.Decimal
	Delta    decimal.Decimal // Fact - Norm
}

// Summary returns four quarters per employee in row order.
func (a *Aggregator) Summary(order Order, norms Norms) []QuarterSummary {
	out := make([]QuarterSummary, 0, order.Len()*4)
	for _, emp := range order.IDs() {
		for q := 1; q <= 4; q++ {
			fact := a.Total(emp, q)
			norm := norms.Quarter(q)
			out = append(out, QuarterSummary{
				Employee: emp,
				Quarter:  q,
				Fact:     fact,
				Norm:     norm,
				Delta:    fact.Sub(norm),
			})
		}
	}
	return out
}

// Keys returns the stored summary keys sorted.
func (a *Aggregator) Keys() []string {
	keys := make([]string, 0, len(a.totals))
	for k := range a.totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a *Aggregator) quarterKeyOf(k Key) (string, bool) {
	emp, date, ok := k.Split()
	if !ok {
		return "", false
	}
	year, q, ok := QuarterOfDate(date)
	if !ok || (a.year != 0 && year != a.year) {
		return "", false
	}
	return QuarterKey(emp, q), true
}
