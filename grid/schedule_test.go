package grid_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-grid/grid"
	"github.com/warp/shift-grid/grid/store"
)

// seedProduction publishes entries through a throwaway schedule.
func seedProduction(t *testing.T, p grid.Persistence, entries grid.Entries) {
	t.Helper()
	s := grid.NewSchedule(p, "icu", 2025)
	require.NoError(t, s.Load(context.Background()))
	s.BatchSetDraftCells(entries)
	_, err := s.Publish(context.Background())
	require.NoError(t, err)
}

func loadSchedule(t *testing.T, p grid.Persistence) *grid.Schedule {
	t.Helper()
	s := grid.NewSchedule(p, "icu", 2025)
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestSchedule_LoadMissingDocuments(t *testing.T) {
	s := loadSchedule(t, store.NewMemory())

	assert.Empty(t, s.Production())
	assert.Empty(t, s.Draft())
	assert.False(t, s.HasUnsavedChanges())
	assert.Equal(t, grid.Code(""), s.Status("e1", "2025-01-01"))
}

func TestSchedule_DraftOverlaysProduction(t *testing.T) {
	// GIVEN: production with two cells
	mem := store.NewMemory()
	seedProduction(t, mem, grid.Entries{"e1-2025-01-01": "Д", "e1-2025-01-02": "Н"})
	s := loadSchedule(t, mem)

	// WHEN: the draft overrides one and clears the other
	s.SetDraftCell("e1", "2025-01-01", "В")
	change := s.SetDraftCell("e1", "2025-01-02", "")

	// THEN: a touched key wins, even with the empty code
	assert.Equal(t, grid.Code("В"), s.Status("e1", "2025-01-01"))
	assert.Equal(t, grid.Code(""), s.Status("e1", "2025-01-02"))
	assert.Equal(t, grid.Change{Key: "e1-2025-01-02", Old: "Н", New: ""}, change)
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "В", "e1-2025-01-02": ""}, s.Entries())
	assert.True(t, s.HasUnsavedChanges())
	assert.Equal(t, 2, s.ChangedCount())
}

func TestSchedule_BatchChangesInKeyOrder(t *testing.T) {
	s := grid.NewSchedule(nil, "icu", 2025)
	s.SetDraftCell("e1", "2025-01-02", "Д")

	changes := s.BatchSetDraftCells(grid.Entries{
		"e1-2025-01-03": "Н",
		"e1-2025-01-02": "В",
		"e1-2025-01-01": "Д",
	})

	assert.Equal(t, []grid.Change{
		{Key: "e1-2025-01-01", Old: "", New: "Д"},
		{Key: "e1-2025-01-02", Old: "Д", New: "В"},
		{Key: "e1-2025-01-03", Old: "", New: "Н"},
	}, changes)
	assert.Nil(t, s.BatchSetDraftCells(nil))
}

func TestSchedule_PublishCountsOnlyDifferences(t *testing.T) {
	// GIVEN: production Д on Jan 1 and a draft that repeats it
	ctx := context.Background()
	mem := store.NewTxMemory()
	seedProduction(t, mem, grid.Entries{"e1-2025-01-01": "Д", "e2-2025-01-01": "Н"})
	s := loadSchedule(t, mem)
	s.SetDraftCell("e1", "2025-01-01", "Д")
	s.SetDraftCell("e1", "2025-01-02", "Н")
	s.SetDraftCell("e2", "2025-01-01", "")
	require.NoError(t, s.SaveDraft(ctx))

	// WHEN
	changed, err := s.Publish(ctx)

	// THEN: the repeated value does not count, "" deletes from production
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "Д", "e1-2025-01-02": "Н"}, s.Production())
	assert.Empty(t, s.Draft())
	assert.False(t, s.HasUnsavedChanges())

	raw, err := mem.Get(ctx, grid.DraftKey("icu", 2025))
	require.NoError(t, err)
	assert.Nil(t, raw, "draft document removed")

	raw, err = mem.Get(ctx, grid.ScheduleKey("icu", 2025))
	require.NoError(t, err)
	var persisted grid.Entries
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, s.Production(), persisted)
}

func TestSchedule_PublishFailureLeavesStateIntact(t *testing.T) {
	// GIVEN: a store that rejects schedule writes
	ctx := context.Background()
	fs := newFlakyStore()
	seedProduction(t, fs, grid.Entries{"e1-2025-01-01": "Д"})
	s := loadSchedule(t, fs)
	s.SetDraftCell("e1", "2025-01-01", "Н")
	fs.failOn("put", "schedule:")

	// WHEN
	changed, err := s.Publish(ctx)

	// THEN
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, changed)
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "Д"}, s.Production())
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "Н"}, s.Draft())
	assert.True(t, s.HasUnsavedChanges())
	assert.False(t, s.Publishing())
	raw, err := fs.Get(ctx, grid.DraftKey("icu", 2025))
	require.NoError(t, err)
	assert.Nil(t, raw, "refused save left no draft document behind")
}

func TestSchedule_PublishRollsBackWhenDraftRemovalFails(t *testing.T) {
	// GIVEN: the schedule write succeeds but removing the draft fails
	ctx := context.Background()
	fs := newFlakyStore()
	s := loadSchedule(t, fs)
	s.SetDraftCell("e1", "2025-01-01", "Д")
	fs.failOn("remove", "draft:")

	// WHEN
	_, err := s.Publish(ctx)

	// THEN: the schedule document was rolled back too
	require.Error(t, err)
	fs.setHook(nil)
	raw, err := fs.Get(ctx, grid.ScheduleKey("icu", 2025))
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Empty(t, s.Production())
}

func TestSchedule_SecondPublishWhileInFlight(t *testing.T) {
	// GIVEN: a publish paused inside its schedule write
	ctx := context.Background()
	fs := newFlakyStore()
	s := loadSchedule(t, fs)
	s.SetDraftCell("e1", "2025-01-01", "Д")
	s.SetDraftCell("e1", "2025-01-02", "Н")

	var once sync.Once
	started, release := make(chan struct{}), make(chan struct{})
	fs.setHook(func(op, key string) error {
		if op == "put" && strings.HasPrefix(key, "schedule:") {
			once.Do(func() { close(started) })
			<-release
		}
		return nil
	})

	type outcome struct {
		changed int
		err     error
	}
	first := make(chan outcome, 1)
	go func() {
		n, err := s.Publish(ctx)
		first <- outcome{n, err}
	}()
	<-started

	// WHEN: a second publish, a discard and new edits arrive meanwhile
	_, err := s.Publish(ctx)
	discardErr := s.Discard(ctx)
	saveErr := s.SaveDraft(ctx)
	s.SetDraftCell("e1", "2025-01-02", "В")
	s.SetDraftCell("e2", "2025-01-01", "Д")
	assert.True(t, s.Publishing())

	close(release)
	got := <-first

	// THEN: the overlapping calls are rejected and only snapshotted
	// values are published; later edits stay pending
	assert.ErrorIs(t, err, grid.ErrPublishInFlight)
	assert.ErrorIs(t, discardErr, grid.ErrPublishInFlight)
	assert.ErrorIs(t, saveErr, grid.ErrPublishInFlight)
	require.NoError(t, got.err)
	assert.Equal(t, 2, got.changed)
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "Д", "e1-2025-01-02": "Н"}, s.Production())
	assert.Equal(t, grid.Entries{"e1-2025-01-02": "В", "e2-2025-01-01": "Д"}, s.Draft())
	assert.True(t, s.HasUnsavedChanges())
	assert.False(t, s.Publishing())
}

func TestSchedule_SaveDraft(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := loadSchedule(t, mem)
	s.SetDraftCell("e1", "2025-03-01", "О")

	require.NoError(t, s.SaveDraft(ctx))

	assert.False(t, s.HasUnsavedChanges())
	reloaded := loadSchedule(t, mem)
	assert.Equal(t, grid.Entries{"e1-2025-03-01": "О"}, reloaded.Draft())
	assert.Empty(t, reloaded.Production())
}

func TestSchedule_SaveDraftFailureKeepsDirty(t *testing.T) {
	fs := newFlakyStore()
	s := loadSchedule(t, fs)
	s.SetDraftCell("e1", "2025-03-01", "О")
	fs.failOn("put", "draft:")

	err := s.SaveDraft(context.Background())

	assert.ErrorIs(t, err, grid.ErrPersistence)
	assert.True(t, s.HasUnsavedChanges())
	assert.Equal(t, grid.Entries{"e1-2025-03-01": "О"}, s.Draft())
}

func TestSchedule_Discard(t *testing.T) {
	// GIVEN: production and a saved draft
	ctx := context.Background()
	mem := store.NewMemory()
	seedProduction(t, mem, grid.Entries{"e1-2025-01-01": "Д"})
	s := loadSchedule(t, mem)
	s.SetDraftCell("e1", "2025-01-01", "В")
	require.NoError(t, s.SaveDraft(ctx))

	// WHEN
	require.NoError(t, s.Discard(ctx))

	// THEN: production is untouched and the draft is gone everywhere
	assert.Equal(t, grid.Code("Д"), s.Status("e1", "2025-01-01"))
	assert.Empty(t, s.Draft())
	assert.False(t, s.HasUnsavedChanges())
	assert.Empty(t, loadSchedule(t, mem).Draft())
}

func TestSchedule_DiscardFailureKeepsDraft(t *testing.T) {
	fs := newFlakyStore()
	s := loadSchedule(t, fs)
	s.SetDraftCell("e1", "2025-01-01", "В")
	fs.failOn("remove", "draft:")

	err := s.Discard(context.Background())

	assert.ErrorIs(t, err, grid.ErrPersistence)
	assert.Equal(t, grid.Entries{"e1-2025-01-01": "В"}, s.Draft())
}

func TestSchedule_ReplaceDraft(t *testing.T) {
	// GIVEN: production Д and a draft over two keys
	mem := store.NewMemory()
	seedProduction(t, mem, grid.Entries{"e1-2025-01-01": "Д"})
	s := loadSchedule(t, mem)
	s.BatchSetDraftCells(grid.Entries{"e1-2025-01-01": "В", "e1-2025-01-02": "Н"})

	// WHEN: replacing the draft with a snapshot touching only Jan 3
	changes := s.ReplaceDraft(grid.Entries{"e1-2025-01-03": "8"})

	// THEN: dropped keys fall back to production
	assert.Equal(t, []grid.Change{
		{Key: "e1-2025-01-01", Old: "В", New: "Д"},
		{Key: "e1-2025-01-02", Old: "Н", New: ""},
		{Key: "e1-2025-01-03", Old: "", New: "8"},
	}, changes)
	assert.Equal(t, grid.Entries{"e1-2025-01-03": "8"}, s.Draft())
	assert.True(t, s.HasUnsavedChanges())
}

func TestSchedule_ReadsAreCopies(t *testing.T) {
	s := grid.NewSchedule(nil, "icu", 2025)
	s.SetDraftCell("e1", "2025-01-01", "Д")

	d := s.Draft()
	d["e1-2025-01-01"] = "Н"

	assert.Equal(t, grid.Code("Д"), s.Status("e1", "2025-01-01"))
}

func TestKey_Split(t *testing.T) {
	emp, date, ok := grid.MakeKey("nurse-001", "2025-07-01").Split()
	require.True(t, ok)
	assert.Equal(t, grid.EmployeeID("nurse-001"), emp)
	assert.Equal(t, "2025-07-01", date)

	_, _, ok = grid.Key("short").Split()
	assert.False(t, ok)
}
