package grid_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-grid/grid"
)

func draftOfSize(n int) grid.Draft {
	d := make(grid.Draft, n)
	for i := 0; i < n; i++ {
		d[grid.MakeKey("e1", fmt.Sprintf("2025-01-%02d", i%28+1))+grid.Key(fmt.Sprint(i))] = "Д"
	}
	return d
}

func TestUndoStack_LIFO(t *testing.T) {
	u := grid.NewUndoStack(5)
	u.Push(draftOfSize(1))
	u.Push(draftOfSize(2))

	top, ok := u.Pop()
	require.True(t, ok)
	assert.Len(t, top, 2)
	top, _ = u.Pop()
	assert.Len(t, top, 1)

	_, ok = u.Pop()
	assert.False(t, ok)
}

func TestUndoStack_EvictsOldest(t *testing.T) {
	// GIVEN: 60 pushes into a stack of 50
	u := grid.NewUndoStack(50)
	for i := 1; i <= 60; i++ {
		u.Push(draftOfSize(i))
	}

	// THEN: only the newest 50 survive
	require.Equal(t, 50, u.Len())
	var last grid.Draft
	for u.Len() > 0 {
		last, _ = u.Pop()
	}
	assert.Len(t, last, 11, "snapshots 1..10 were evicted")
}

func TestUndoStack_StoresDeepCopies(t *testing.T) {
	u := grid.NewUndoStack(3)
	d := grid.Draft{"e1-2025-01-01": "Д"}

	u.Push(d)
	d["e1-2025-01-01"] = "Н"
	d["e1-2025-01-02"] = "В"

	got, _ := u.Pop()
	assert.Equal(t, grid.Draft{"e1-2025-01-01": "Д"}, got)
}

func TestUndoStack_DefaultDepth(t *testing.T) {
	assert.Equal(t, grid.DefaultUndoDepth, grid.NewUndoStack(0).Max())
	assert.Equal(t, 50, grid.DefaultUndoDepth)

	u := grid.NewUndoStack(2)
	u.Push(nil)
	u.Clear()
	assert.Zero(t, u.Len())
}
