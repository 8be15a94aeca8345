package grid

// =============================================================================
// UNDO STACK - Bounded LIFO of full draft snapshots
// =============================================================================

// DefaultUndoDepth is the stack depth used when none is configured.
const DefaultUndoDepth = 50

// UndoStack keeps deep copies of the draft taken before each batch edit.
// When full, the oldest snapshot is evicted.
type UndoStack struct {
	max   int
	items []Draft
}

// NewUndoStack returns a stack holding at most max snapshots.
// A non-positive max falls back to DefaultUndoDepth.
func NewUndoStack(max int) *UndoStack {
	if max <= 0 {
		max = DefaultUndoDepth
	}
	return &UndoStack{max: max}
}

// Push stores a deep copy of snapshot.
func (u *UndoStack) Push(snapshot Draft) {
	u.items = append(u.items, snapshot.Clone())
	if over := len(u.items) - u.max; over > 0 {
		clear(u.items[:over])
		u.items = u.items[over:]
	}
}

// Pop removes and returns the most recent snapshot.
func (u *UndoStack) Pop() (Draft, bool) {
	n := len(u.items)
	if n == 0 {
		return nil, false
	}
	top := u.items[n-1]
	u.items[n-1] = nil
	u.items = u.items[:n-1]
	return top, true
}

func (u *UndoStack) Len() int { return len(u.items) }
func (u *UndoStack) Max() int { return u.max }

// Clear drops every snapshot.
func (u *UndoStack) Clear() {
	u.items = nil
}
