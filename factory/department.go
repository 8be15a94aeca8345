/*
Package factory provides JSON to Go department conversion.

PURPOSE:
  Converts JSON department definitions into grid.Config objects. Status
  catalogues, rosters and monthly hour norms are configured without code
  changes; the factory validates them and builds the Go structs the
  editor consumes.

JSON SCHEMA:
  {
    "department": "icu",
    "statuses": [
      {"code": "Д", "label": "День", "hours": 12, "background": "#fff3c4", "text": "#5c4400"},
      {"code": "В", "label": "Выходной", "hours": 0}
    ],
    "employees": [
      {"id": "e1", "name": "Иванова А.", "fullName": "Иванова Анна", "position": "Медсестра"}
    ],
    "norms": {"1": 136, "2": 160}
  }

KEY FEATURES:
  - Validates codes (non-empty, unique) and hour values (non-negative)
  - Keeps employee order as listed
  - Norm keys are month numbers 1-12

USAGE:
  cfg, err := factory.ParseDepartment(factory.DemoDepartmentJSON)

SEE ALSO:
  - grid/types.go: Config, StatusTable, Roster
  - grid/hours.go: Norms
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-grid/grid"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// DepartmentJSON is the JSON representation of a department.
type DepartmentJSON struct {
	Department string                     `json:"department"`
	Statuses   []StatusJSON               `json:"statuses"`
	Employees  []grid.Employee            `json:"employees,omitempty"`
	Norms      map[string]decimal.Decimal `json:"norms,omitempty"` // month number -> hours
}

// StatusJSON represents one status code.
type StatusJSON struct {
	Code       string          `json:"code"`
	Label      string          `json:"label"`
	Hours      decimal.Decimal `json:"hours"`
	Background string          `json:"background,omitempty"`
	Text       string          `json:"text,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseDepartment parses a JSON string into a grid.Config.
func ParseDepartment(jsonStr string) (grid.Config, error) {
	var dj DepartmentJSON
	if err := json.Unmarshal([]byte(jsonStr), &dj); err != nil {
		return grid.Config{}, fmt.Errorf("failed to parse department JSON: %w", err)
	}
	return FromJSON(dj)
}

// FromJSON converts DepartmentJSON to grid.Config.
func FromJSON(dj DepartmentJSON) (grid.Config, error) {
	statuses, err := parseStatuses(dj.Statuses)
	if err != nil {
		return grid.Config{}, err
	}
	roster, err := parseRoster(dj.Employees)
	if err != nil {
		return grid.Config{}, err
	}
	norms, err := parseNorms(dj.Norms)
	if err != nil {
		return grid.Config{}, err
	}
	return grid.Config{
		Department: dj.Department,
		Statuses:   statuses,
		Roster:     roster,
		Norms:      norms,
	}, nil
}

// ParseStatuses parses a bare JSON array of statuses.
func ParseStatuses(jsonStr string) (grid.StatusTable, error) {
	var sj []StatusJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse statuses JSON: %w", err)
	}
	return parseStatuses(sj)
}

func parseStatuses(items []StatusJSON) (grid.StatusTable, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("department has no statuses")
	}
	table := make(grid.StatusTable, len(items))
	for _, s := range items {
		code := grid.Code(s.Code)
		if code == "" {
			return nil, fmt.Errorf("status %q: empty code", s.Label)
		}
		if _, dup := table[code]; dup {
			return nil, fmt.Errorf("status %q: duplicate code", s.Code)
		}
		if s.Hours.IsNegative() {
			return nil, fmt.Errorf("status %q: negative hours %s", s.Code, s.Hours)
		}
		table[code] = grid.Status{
			Code:            code,
			Label:           s.Label,
			Hours:           s.Hours,
			ColorBackground: s.Background,
			ColorText:       s.Text,
		}
	}
	return table, nil
}

func parseRoster(employees []grid.Employee) (grid.Roster, error) {
	r := grid.Roster{Employees: make(map[grid.EmployeeID]grid.Employee, len(employees))}
	for _, e := range employees {
		if e.ID == "" {
			return grid.Roster{}, fmt.Errorf("employee %q: empty id", e.Name)
		}
		if _, dup := r.Employees[e.ID]; dup {
			return grid.Roster{}, fmt.Errorf("employee %q: duplicate id", e.ID)
		}
		r.Employees[e.ID] = e
		r.EmployeeIDs = append(r.EmployeeIDs, e.ID)
	}
	return r, nil
}

func parseNorms(raw map[string]decimal.Decimal) (grid.Norms, error) {
	norms := make(grid.Norms, len(raw))
	for k, v := range raw {
		m, err := strconv.Atoi(k)
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("norm month %q: want 1-12", k)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("norm month %d: negative hours", m)
		}
		norms[time.Month(m)] = v
	}
	return norms, nil
}

// ToJSON converts a grid.Config back into its JSON representation.
func ToJSON(cfg grid.Config) DepartmentJSON {
	dj := DepartmentJSON{Department: cfg.Department}
	for _, code := range cfg.Statuses.Codes() {
		s := cfg.Statuses[code]
		dj.Statuses = append(dj.Statuses, StatusJSON{
			Code:       string(s.Code),
			Label:      s.Label,
			Hours:      s.Hours,
			Background: s.ColorBackground,
			Text:       s.ColorText,
		})
	}
	for _, id := range cfg.Roster.EmployeeIDs {
		dj.Employees = append(dj.Employees, cfg.Roster.Employees[id])
	}
	if len(cfg.Norms) > 0 {
		dj.Norms = make(map[string]decimal.Decimal, len(cfg.Norms))
		for m, v := range cfg.Norms {
			dj.Norms[strconv.Itoa(int(m))] = v
		}
	}
	return dj
}
