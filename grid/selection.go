package grid

// =============================================================================
// SELECTION ENGINE - Rectangular multi-region cell selection
// =============================================================================

// Cell addresses one grid cell by employee and slot.
type Cell struct {
	Employee EmployeeID `json:"employeeId"`
	Slot     int        `json:"slot"`
}

// Region is a rectangle given by two corner cells. Corner order is irrelevant.
type Region struct {
	Start Cell `json:"start"`
	End   Cell `json:"end"`
}

// Rect is the resolved bounding box of a region in (row x slot) space.
// Bounds are inclusive.
type Rect struct {
	Top, Bottom int // employee rows
	Left, Right int // slots
}

func (r Rect) Rows() int { return r.Bottom - r.Top + 1 }
func (r Rect) Cols() int { return r.Right - r.Left + 1 }
func (r Rect) Size() int { return r.Rows() * r.Cols() }

// Contains reports whether (row, slot) lies inside the rectangle.
func (r Rect) Contains(row, slot int) bool {
	return row >= r.Top && row <= r.Bottom && slot >= r.Left && slot <= r.Right
}

// Bounds resolves a region against the row order. Returns false when a
// corner's employee is not in the order.
func (rg Region) Bounds(order Order) (Rect, bool) {
	a, okA := order.IndexOf(rg.Start.Employee)
	b, okB := order.IndexOf(rg.End.Employee)
	if !okA || !okB {
		return Rect{}, false
	}
	return Rect{
		Top:    min(a, b),
		Bottom: max(a, b),
		Left:   min(rg.Start.Slot, rg.End.Slot),
		Right:  max(rg.Start.Slot, rg.End.Slot),
	}, true
}

// Selector is the capability shared by every table's selection engine.
// Keyboard shortcuts are routed to whichever Selector is active.
type Selector interface {
	Start(c Cell, withCtrl bool)
	Update(c Cell)
	End()
	Clear()
	Regions() []Region
}

// Selection tracks the regions of one table. Each rendered table owns
// its own Selection; instances never share state.
type Selection struct {
	frozen   []Region
	active   *Region
	dragging bool
}

var _ Selector = (*Selection)(nil)

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{}
}

// Start begins a one-cell region at c. With Ctrl held and a region
// already active, the active region is frozen and kept; otherwise every
// region is dropped first.
func (s *Selection) Start(c Cell, withCtrl bool) {
	if withCtrl && s.active != nil {
		s.frozen = append(s.frozen, *s.active)
	} else {
		s.frozen = nil
	}
	s.active = &Region{Start: c, End: c}
	s.dragging = true
}

// Update moves the active region's end corner. No-op unless dragging.
func (s *Selection) Update(c Cell) {
	if !s.dragging || s.active == nil {
		return
	}
	s.active.End = c
}

// End stops dragging. The active region keeps its final corners.
func (s *Selection) End() {
	s.dragging = false
}

// Clear drops every region and the dragging flag.
func (s *Selection) Clear() {
	s.frozen = nil
	s.active = nil
	s.dragging = false
}

// Dragging reports whether a drag is in progress.
func (s *Selection) Dragging() bool { return s.dragging }

// Regions returns frozen regions followed by the active one.
// This is the list every editing operation consumes.
func (s *Selection) Regions() []Region {
	out := make([]Region, 0, len(s.frozen)+1)
	out = append(out, s.frozen...)
	if s.active != nil {
		out = append(out, *s.active)
	}
	return out
}

// Last returns the most recent region: the active one, else the last frozen.
func (s *Selection) Last() (Region, bool) {
	if s.active != nil {
		return *s.active, true
	}
	if n := len(s.frozen); n > 0 {
		return s.frozen[n-1], true
	}
	return Region{}, false
}

// SelectedCount sums the areas of all regions. Overlapping regions are
// counted once per region.
func (s *Selection) SelectedCount(order Order) int {
	n := 0
	for _, rg := range s.Regions() {
		if r, ok := rg.Bounds(order); ok {
			n += r.Size()
		}
	}
	return n
}

// IsSingleCellSelected is true iff exactly one region exists and both
// its corners are the same cell.
func (s *Selection) IsSingleCellSelected() bool {
	regions := s.Regions()
	return len(regions) == 1 && regions[0].Start == regions[0].End
}

// IsCellSelected tests containment against every frozen and active region.
func (s *Selection) IsCellSelected(order Order, emp EmployeeID, slot int) bool {
	row, ok := order.IndexOf(emp)
	if !ok {
		return false
	}
	for _, rg := range s.Regions() {
		if r, ok := rg.Bounds(order); ok && r.Contains(row, slot) {
			return true
		}
	}
	return false
}

// Cells enumerates the distinct selected cells region by region,
// limited to rows of order and slots in [0, slots).
func (s *Selection) Cells(order Order, slots int) []Cell {
	seen := make(map[Cell]struct{})
	var cells []Cell
	for _, rg := range s.Regions() {
		r, ok := rg.Bounds(order)
		if !ok {
			continue
		}
		for row := r.Top; row <= r.Bottom; row++ {
			emp, _ := order.At(row)
			for slot := max(r.Left, 0); slot <= r.Right && slot < slots; slot++ {
				c := Cell{Employee: emp, Slot: slot}
				if _, dup := seen[c]; dup {
					continue
				}
				seen[c] = struct{}{}
				cells = append(cells, c)
			}
		}
	}
	return cells
}
