/*
Package grid provides the selection-and-edit engine of the shift grid.

PURPOSE:
  The grid is a matrix of (employee x day) cells holding short status
  codes ("Д", "В", "" or a department-defined code). This package owns
  everything with algorithmic content behind the browser editor:
  draft/production schedule state, rectangular multi-region selection,
  clipboard tiling, undo snapshots and quarter hour totals.

KEY CONCEPTS IN THIS FILE (types.go):
  - EmployeeID / Code: Type-safe identifiers for rows and cell values
  - Key: Composite "employeeId-YYYY-MM-DD" schedule key
  - Entries / Draft: Flat key -> code maps (production and draft overlay)
  - Order: Row order of employees, resolves employee -> row index
  - Status / StatusTable: Department status catalogue (hours, colors)

DESIGN PRINCIPLES:
  1. Explicit ownership: no package-level state, every table owns its
     selection, the editor owns the schedule and undo stack
  2. Precision: Hours use decimal.Decimal so full and incremental sums agree
  3. Exception-free edits: only persistence calls can fail

USAGE:
  slots := grid.BuildSlotIndex(2025, 0)
  sched := grid.NewSchedule(store.NewMemory(), "ops", 2025)
  sched.SetDraftCell("E1", slots.DateAt(0), "Д")

SEE ALSO:
  - schedule.go: Draft/production store
  - selection.go: Region tracking
  - clipboard.go: Copy and paste strategies
  - editor.go: Session orchestration
*/
package grid

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// Code is a cell status code. The empty code is a valid, explicit value.
type Code string

// DateLayout is the layout of every date string handled by the engine.
const DateLayout = "2006-01-02"

// Key is the composite schedule key: employeeId + "-" + date.
type Key string

// MakeKey builds the schedule key for an employee and a YYYY-MM-DD date.
func MakeKey(emp EmployeeID, date string) Key {
	return Key(string(emp) + "-" + date)
}

// Split returns the employee and date parts of the key.
// The date is always the trailing ten characters, so employee IDs may
// contain dashes themselves.
func (k Key) Split() (EmployeeID, string, bool) {
	s := string(k)
	if len(s) < len(DateLayout)+2 || s[len(s)-len(DateLayout)-1] != '-' {
		return "", "", false
	}
	return EmployeeID(s[:len(s)-len(DateLayout)-1]), s[len(s)-len(DateLayout):], true
}

// =============================================================================
// SCHEDULE MAPS
// =============================================================================

// Entries is a flat schedule map. Production and draft share this shape.
type Entries map[Key]Code

// Draft is the sparse overlay of pending edits.
type Draft = Entries

// Clone returns a deep copy. A nil map clones to an empty map.
func (e Entries) Clone() Entries {
	out := make(Entries, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Equal reports whether both maps hold exactly the same keys and values.
func (e Entries) Equal(other Entries) bool {
	if len(e) != len(other) {
		return false
	}
	for k, v := range e {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Keys returns the keys in lexical order.
func (e Entries) Keys() []Key {
	keys := make([]Key, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Change describes one effective cell transition produced by an edit.
type Change struct {
	Key Key
	Old Code
	New Code
}

// =============================================================================
// EMPLOYEE ORDER
// =============================================================================

// Order is the row order of a table. Row index = position in the roster.
type Order struct {
	ids   []EmployeeID
	index map[EmployeeID]int
}

// NewOrder builds an order from roster IDs. Duplicates keep the first row.
func NewOrder(ids []EmployeeID) Order {
	o := Order{ids: make([]EmployeeID, 0, len(ids)), index: make(map[EmployeeID]int, len(ids))}
	for _, id := range ids {
		if _, dup := o.index[id]; dup {
			continue
		}
		o.index[id] = len(o.ids)
		o.ids = append(o.ids, id)
	}
	return o
}

func (o Order) Len() int { return len(o.ids) }

// IndexOf returns the row of an employee.
func (o Order) IndexOf(id EmployeeID) (int, bool) {
	i, ok := o.index[id]
	return i, ok
}

// At returns the employee at a row.
func (o Order) At(row int) (EmployeeID, bool) {
	if row < 0 || row >= len(o.ids) {
		return "", false
	}
	return o.ids[row], true
}

// IDs returns a copy of the ordered roster.
func (o Order) IDs() []EmployeeID {
	return append([]EmployeeID(nil), o.ids...)
}

// =============================================================================
// CONFIGURATION INPUTS (read-only)
// =============================================================================

// Status describes one department status code.
type Status struct {
	Code            Code
	Label           string
	Hours           decimal.Decimal
	ColorBackground string
	ColorText       string
}

// StatusTable is the department status catalogue keyed by code.
type StatusTable map[Code]Status

// Has reports whether the code is configured. The empty code is always valid.
func (t StatusTable) Has(c Code) bool {
	if c == "" {
		return true
	}
	_, ok := t[c]
	return ok
}

// Hours returns the code -> hours lookup used by the aggregator.
func (t StatusTable) Hours() HoursTable {
	h := make(HoursTable, len(t))
	for code, s := range t {
		h[code] = s.Hours
	}
	return h
}

// Codes returns the configured codes sorted.
func (t StatusTable) Codes() []Code {
	codes := make([]Code, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return strings.Compare(string(codes[i]), string(codes[j])) < 0 })
	return codes
}

// Employee is one roster entry.
type Employee struct {
	ID       EmployeeID `json:"id"`
	Name     string     `json:"name"`
	FullName string     `json:"fullName"`
	Position string     `json:"position"`
}

// Roster holds employees and their display order.
type Roster struct {
	Employees   map[EmployeeID]Employee `json:"employees"`
	EmployeeIDs []EmployeeID            `json:"employeeIds"`
}

// Order returns the row order of the roster.
func (r Roster) Order() Order {
	return NewOrder(r.EmployeeIDs)
}

// Config bundles the department inputs the editor consumes.
type Config struct {
	Department string
	Statuses   StatusTable
	Roster     Roster
	Norms      Norms
}
