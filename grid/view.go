package grid

// =============================================================================
// VIEW - What the rendering layer paints
// =============================================================================

// TableView is a point-in-time render model of one table.
type TableView struct {
	Name           TableName
	Year           int
	OffsetMonths   int
	Active         bool
	Dates          []string
	Days           []string
	MonthGroups    []MonthGroup
	QuarterGroups  []QuarterGroup
	Rows           []RowView
	SelectedCount  int
	SingleSelected bool
	Regions        []Region
	HasUnsaved     bool
	Editing        bool
}

// RowView is one employee row.
type RowView struct {
	Employee Employee
	Codes    []Code
	Selected []bool
}

// View renders table name under the session lock.
func (e *Editor) View(name TableName) (TableView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return TableView{}, err
	}

	slots := t.Slots
	v := TableView{
		Name:           t.Name,
		Year:           slots.Year,
		OffsetMonths:   slots.OffsetMonths,
		Active:         e.active == t.Name,
		Dates:          slots.Dates(),
		Days:           make([]string, slots.Len()),
		MonthGroups:    slots.Months(),
		QuarterGroups:  QuarterGroups(slots.MonthGroups),
		SelectedCount:  t.Selection.SelectedCount(e.order),
		SingleSelected: t.Selection.IsSingleCellSelected(),
		Regions:        t.Selection.Regions(),
		HasUnsaved:     e.schedule.HasUnsavedChanges(),
		Editing:        e.editing,
	}
	for slot := range v.Days {
		v.Days[slot] = slots.DayAt(slot)
	}

	entries := e.schedule.Entries()
	for _, id := range e.order.IDs() {
		emp, found := e.cfg.Roster.Employees[id]
		if !found {
			emp.Name = string(id)
		}
		emp.ID = id
		row := RowView{
			Employee: emp,
			Codes:    make([]Code, slots.Len()),
			Selected: make([]bool, slots.Len()),
		}
		for slot, date := range v.Dates {
			row.Codes[slot] = entries[MakeKey(id, date)]
			row.Selected[slot] = t.Selection.IsCellSelected(e.order, id, slot)
		}
		v.Rows = append(v.Rows, row)
	}
	return v, nil
}
