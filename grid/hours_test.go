package grid_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-grid/grid"
)

func TestNorms_Quarter(t *testing.T) {
	norms := testConfig().Norms

	assert.Equal(t, "463", norms.Quarter(1).String())
	assert.Equal(t, "470", norms.Quarter(2).String())
	assert.True(t, norms.Quarter(3).IsZero())
}

func TestQuarterOfDate(t *testing.T) {
	year, q, ok := grid.QuarterOfDate("2026-03-31")
	require.True(t, ok)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 1, q)

	_, _, ok = grid.QuarterOfDate("2026-13-01")
	assert.False(t, ok)
}

func TestAggregator_RecomputeIsExact(t *testing.T) {
	// GIVEN: three half shifts of 4.5 hours and a day shift in Q1
	agg := grid.NewAggregator(testStatuses().Hours(), 2025)

	agg.Recompute(grid.Entries{
		"e1-2025-01-01": "4",
		"e1-2025-01-02": "4",
		"e1-2025-03-31": "4",
		"e1-2025-02-10": "Д",
		"e1-2025-04-01": "В",
	})

	// THEN
	assert.True(t, hours("25.5").Equal(agg.Total("e1", 1)), agg.Total("e1", 1).String())
	assert.True(t, agg.Total("e1", 2).IsZero())
	assert.Equal(t, []string{"e1-Q1"}, agg.Keys(), "zero totals are not stored")
}

func TestAggregator_ApplyAddsDelta(t *testing.T) {
	agg := grid.NewAggregator(testStatuses().Hours(), 2025)

	agg.Apply([]grid.Change{
		{Key: "e1-2025-05-01", Old: "", New: "Д"},
		{Key: "e1-2025-05-02", Old: "", New: "8"},
	})
	assert.Equal(t, "20", agg.Total("e1", 2).String())

	agg.Apply([]grid.Change{{Key: "e1-2025-05-01", Old: "Д", New: "4"}})
	assert.Equal(t, "12.5", agg.Total("e1", 2).String())

	// Going back to zero removes the key.
	agg.Apply([]grid.Change{
		{Key: "e1-2025-05-01", Old: "4", New: "В"},
		{Key: "e1-2025-05-02", Old: "8", New: ""},
	})
	assert.Empty(t, agg.Keys())
}

func TestAggregator_IgnoresOtherYears(t *testing.T) {
	agg := grid.NewAggregator(testStatuses().Hours(), 2025)

	agg.Apply([]grid.Change{{Key: "e1-2026-01-05", Old: "", New: "Д"}})
	agg.Recompute(grid.Entries{"e1-2026-01-05": "Д", "e1-2024-12-31": "Н"})

	assert.Empty(t, agg.Totals())

	all := grid.NewAggregator(testStatuses().Hours(), 0)
	all.Recompute(grid.Entries{"e1-2026-01-05": "Д", "e1-2024-12-31": "Н"})
	assert.Equal(t, map[string]string{"e1-Q1": "12", "e1-Q4": "12"}, totalsAsStrings(all.Totals()))
}

func TestAggregator_IncrementalMatchesRecompute(t *testing.T) {
	// GIVEN: a seeded random edit sequence over two years of dates
	rng := rand.New(rand.NewSource(42))
	codes := []grid.Code{"", "Д", "Н", "8", "4", "В", "О", "?"}
	hoursTable := testStatuses().Hours()
	sched := grid.NewSchedule(nil, "icu", 2025)
	incremental := grid.NewAggregator(hoursTable, 2025)

	// WHEN: applying every edit incrementally, single and batched
	for i := 0; i < 2000; i++ {
		year := 2025
		if rng.Intn(5) == 0 {
			year = 2026
		}
		emp := testEmployees[rng.Intn(len(testEmployees))]
		date := fmt.Sprintf("%04d-%02d-%02d", year, rng.Intn(12)+1, rng.Intn(28)+1)
		code := codes[rng.Intn(len(codes))]

		if i%10 == 0 {
			batch := grid.Entries{grid.MakeKey(emp, date): code}
			other := testEmployees[rng.Intn(len(testEmployees))]
			batch[grid.MakeKey(other, date)] = codes[rng.Intn(len(codes))]
			incremental.Apply(sched.BatchSetDraftCells(batch))
			continue
		}
		incremental.Apply([]grid.Change{sched.SetDraftCell(emp, date, code)})
	}

	// THEN: a full recompute agrees key for key
	full := grid.NewAggregator(hoursTable, 2025)
	full.Recompute(sched.Entries())
	assert.Equal(t, totalsAsStrings(full.Totals()), totalsAsStrings(incremental.Totals()))
	assert.Equal(t, full.Keys(), incremental.Keys())
}

func TestAggregator_Summary(t *testing.T) {
	agg := grid.NewAggregator(testStatuses().Hours(), 2025)
	agg.Recompute(grid.Entries{"e2-2025-01-01": "Д"})

	rows := agg.Summary(testOrder(), testConfig().Norms)

	require.Len(t, rows, 16)
	assert.Equal(t, grid.EmployeeID("e1"), rows[0].Employee)
	e2q1 := rows[4]
	assert.Equal(t, grid.EmployeeID("e2"), e2q1.Employee)
	assert.Equal(t, 1, e2q1.Quarter)
	assert.Equal(t, "12", e2q1.Fact.String())
	assert.Equal(t, "463", e2q1.Norm.String())
	assert.Equal(t, "-451", e2q1.Delta.String())
}

func TestAggregator_SetHours(t *testing.T) {
	agg := grid.NewAggregator(testStatuses().Hours(), 2025)
	entries := grid.Entries{"e1-2025-01-01": "Д"}
	agg.Recompute(entries)

	statuses := testStatuses()
	d := statuses["Д"]
	d.Hours = hours("11.5")
	statuses["Д"] = d
	agg.SetHours(statuses.Hours(), entries)

	assert.Equal(t, "11.5", agg.Total("e1", 1).String())
}
