/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the grid engine's model from the browser contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Grid:       GridDTO, RowDTO, MonthDTO, QuarterDTO
  Editing:    SelectionRequest, SetCellRequest, FillRequest
  Results:    grid.Result is returned as-is; CopyDTO adds the clipboard
  Summary:    QuarterSummaryDTO
  Statuses:   StatusDTO
  Versions:   VersionDTO, SaveVersionRequest
  Scenarios:  ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/shift-grid/grid"
)

// =============================================================================
// GRID
// =============================================================================

// GridDTO is one rendered table.
type GridDTO struct {
	Table          string        `json:"table"`
	Year           int           `json:"year"`
	OffsetMonths   int           `json:"offsetMonths"`
	Active         bool          `json:"active"`
	Editing        bool          `json:"editing"`
	HasUnsaved     bool          `json:"hasUnsavedChanges"`
	SelectedCount  int           `json:"selectedCount"`
	SingleSelected bool          `json:"singleCellSelected"`
	Dates          []string      `json:"dates"`
	Days           []string      `json:"days"`
	Months         []MonthDTO    `json:"months"`
	Quarters       []QuarterDTO  `json:"quarters"`
	Regions        []grid.Region `json:"regions"`
	Rows           []RowDTO      `json:"rows"`
}

// MonthDTO is one month header cell.
type MonthDTO struct {
	Year      int `json:"year"`
	Month     int `json:"month"`
	StartSlot int `json:"startSlot"`
	Colspan   int `json:"colspan"`
}

// QuarterDTO is one quarter header cell.
type QuarterDTO struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
	Colspan int `json:"colspan"`
}

// RowDTO is one employee row.
type RowDTO struct {
	Employee grid.Employee `json:"employee"`
	Codes    []grid.Code   `json:"codes"`
	Selected []int         `json:"selected,omitempty"` // selected slots
}

func toGridDTO(v grid.TableView) GridDTO {
	dto := GridDTO{
		Table:          string(v.Name),
		Year:           v.Year,
		OffsetMonths:   v.OffsetMonths,
		Active:         v.Active,
		Editing:        v.Editing,
		HasUnsaved:     v.HasUnsaved,
		SelectedCount:  v.SelectedCount,
		SingleSelected: v.SingleSelected,
		Dates:          v.Dates,
		Days:           v.Days,
		Regions:        v.Regions,
		Rows:           make([]RowDTO, 0, len(v.Rows)),
	}
	if dto.Regions == nil {
		dto.Regions = []grid.Region{}
	}
	for _, m := range v.MonthGroups {
		dto.Months = append(dto.Months, MonthDTO{Year: m.Year, Month: int(m.Month), StartSlot: m.StartSlot, Colspan: m.Colspan})
	}
	for _, q := range v.QuarterGroups {
		dto.Quarters = append(dto.Quarters, QuarterDTO{Year: q.Year, Quarter: q.Quarter, Colspan: q.Colspan})
	}
	for _, row := range v.Rows {
		r := RowDTO{Employee: row.Employee, Codes: row.Codes}
		for slot, sel := range row.Selected {
			if sel {
				r.Selected = append(r.Selected, slot)
			}
		}
		dto.Rows = append(dto.Rows, r)
	}
	return dto
}

// =============================================================================
// EDITING REQUESTS
// =============================================================================

// SelectionRequest is a mouse event on a cell.
type SelectionRequest struct {
	EmployeeID string `json:"employeeId"`
	Slot       int    `json:"slot"`
	Ctrl       bool   `json:"ctrl,omitempty"`
}

// SetCellRequest writes one draft cell.
type SetCellRequest struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"` // YYYY-MM-DD
	Code       string `json:"code"`
}

// FillRequest writes one code into the selection.
type FillRequest struct {
	Code string `json:"code"`
}

// YearRequest switches the session year.
type YearRequest struct {
	Year int `json:"year"`
}

// YearDTO describes calendar navigation.
type YearDTO struct {
	Year      int   `json:"year"`
	Available []int `json:"available"`
}

// CopyDTO is the copy result plus the serialized clip for the system
// clipboard.
type CopyDTO struct {
	grid.Result
	Clipboard *grid.Clip `json:"clipboard,omitempty"`
	Text      string     `json:"text,omitempty"` // tab-separated
}

// =============================================================================
// SUMMARY & STATUSES
// =============================================================================

// QuarterSummaryDTO is one fact/norm/delta cell.
type QuarterSummaryDTO struct {
	EmployeeID string `json:"employeeId"`
	Quarter    int    `json:"quarter"`
	Fact       string `json:"fact"`
	Norm       string `json:"norm"`
	Delta      string `json:"delta"`
}

func toSummaryDTOs(rows []grid.QuarterSummary) []QuarterSummaryDTO {
	out := make([]QuarterSummaryDTO, len(rows))
	for i, s := range rows {
		out[i] = QuarterSummaryDTO{
			EmployeeID: string(s.Employee),
			Quarter:    s.Quarter,
			Fact:       s.Fact.String(),
			Norm:       s.Norm.String(),
			Delta:      s.Delta.String(),
		}
	}
	return out
}

// StatusDTO is one status catalogue entry.
type StatusDTO struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	Hours      string `json:"hours"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
}

func toStatusDTOs(t grid.StatusTable) []StatusDTO {
	codes := t.Codes()
	out := make([]StatusDTO, len(codes))
	for i, c := range codes {
		s := t[c]
		out[i] = StatusDTO{
			Code:       string(s.Code),
			Label:      s.Label,
			Hours:      s.Hours.String(),
			Background: s.ColorBackground,
			Text:       s.ColorText,
		}
	}
	return out
}

// =============================================================================
// VERSIONS
// =============================================================================

// SaveVersionRequest names a new snapshot.
type SaveVersionRequest struct {
	Name string `json:"name"`
}

// VersionDTO lists a snapshot without its entries.
type VersionDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Entries   int    `json:"entries"`
}

func toVersionDTO(v grid.Version) VersionDTO {
	return VersionDTO{
		ID:        v.ID,
		Name:      v.Name,
		CreatedAt: v.CreatedAt.Format(time.RFC3339),
		Entries:   len(v.Entries),
	}
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
