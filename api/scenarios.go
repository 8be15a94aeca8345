/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the document store with
	realistic data for demos. Each scenario writes the roster and
	publishes a schedule through the engine itself, so the stored
	documents look exactly like ones the editor produced.

AVAILABLE SCENARIOS:

	empty-ward:    Roster only, nothing scheduled
	rotation:      Published day/night/off/off rotation for the whole year
	pending-draft: Rotation plus a saved, unpublished draft (vacation, sick leave)
	multi-year:    Rotation published for the previous and the current year

HOW SCENARIOS WORK:
 1. Reset the store (clear all documents)
 2. Write the department roster
 3. Publish schedules via grid.Schedule
 4. Optionally save a draft
 5. Reopen the editing session

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "rotation"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Editing handlers
  - factory/presets.go: Demo department definition
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/warp/shift-grid/grid"
)

// Resetter is implemented by stores that can be wiped for demos.
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "empty-ward",
		Name:        "Empty Ward",
		Description: "Roster only, no shifts scheduled",
	},
	{
		ID:          "rotation",
		Name:        "Published Rotation",
		Description: "Day, night, off, off rotation published for the whole year",
	},
	{
		ID:          "pending-draft",
		Name:        "Pending Draft",
		Description: "Published rotation plus unpublished vacation and sick leave edits",
	},
	{
		ID:          "multi-year",
		Name:        "Multi-Year",
		Description: "Rotation published for the previous and the current year",
	},
}

// rotation is the four-day cycle of the demo ward.
var rotation = []grid.Code{"Д", "Н", "В", "В"}

// ListScenarios returns available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if err == errUnknownScenario {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Scenario loaded successfully",
		"scenario": req.ScenarioID,
	})
}

var errUnknownScenario = fmt.Errorf("unknown scenario")

// LoadScenarioByID resets the store, seeds scenario id and reopens the
// session.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var loader func(context.Context) error
	switch id {
	case "empty-ward":
		loader = h.loadEmptyWardScenario
	case "rotation":
		loader = h.loadRotationScenario
	case "pending-draft":
		loader = h.loadPendingDraftScenario
	case "multi-year":
		loader = h.loadMultiYearScenario
	default:
		return errUnknownScenario
	}

	if rs, ok := h.store.(Resetter); ok {
		if err := rs.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}
	if err := loader(ctx); err != nil {
		return err
	}
	if err := h.Open(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
	h.log.WithFields(logrus.Fields{"scenario": id, "department": h.opts.Department}).Info("Scenario loaded")
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadEmptyWardScenario(ctx context.Context) error {
	return grid.SaveRoster(ctx, h.store, h.opts.Department, h.cfg.Roster)
}

func (h *Handler) loadRotationScenario(ctx context.Context) error {
	if err := h.loadEmptyWardScenario(ctx); err != nil {
		return err
	}
	return h.publishRotation(ctx, h.opts.Year)
}

func (h *Handler) loadPendingDraftScenario(ctx context.Context) error {
	if err := h.loadRotationScenario(ctx); err != nil {
		return err
	}

	sched := grid.NewSchedule(h.store, h.opts.Department, h.opts.Year)
	if err := sched.Load(ctx); err != nil {
		return err
	}
	ids := h.cfg.Roster.EmployeeIDs
	updates := make(grid.Entries)
	if len(ids) > 0 {
		// Two weeks of vacation in July for the first employee.
		for day := 1; day <= 14; day++ {
			updates[grid.MakeKey(ids[0], fmt.Sprintf("%04d-07-%02d", h.opts.Year, day))] = "О"
		}
	}
	if len(ids) > 1 {
		// Sick leave in early March for the second.
		for day := 3; day <= 7; day++ {
			updates[grid.MakeKey(ids[1], fmt.Sprintf("%04d-03-%02d", h.opts.Year, day))] = "Б"
		}
	}
	sched.BatchSetDraftCells(updates)
	return sched.SaveDraft(ctx)
}

func (h *Handler) loadMultiYearScenario(ctx context.Context) error {
	if err := h.loadRotationScenario(ctx); err != nil {
		return err
	}
	if err := h.publishRotation(ctx, h.opts.Year-1); err != nil {
		return err
	}
	return grid.AddYear(ctx, h.store, h.opts.Department, h.opts.Year-1)
}

// publishRotation publishes the rotation for every day the main and the
// offset table of year show. Each employee starts one day later in the
// cycle than the row above.
func (h *Handler) publishRotation(ctx context.Context, year int) error {
	dates := grid.BuildSlotIndex(year, 0).Dates()
	if h.opts.OffsetMonths != 0 {
		seen := make(map[string]bool, len(dates))
		for _, d := range dates {
			seen[d] = true
		}
		for _, d := range grid.BuildSlotIndex(year, h.opts.OffsetMonths).Dates() {
			if !seen[d] {
				dates = append(dates, d)
			}
		}
	}

	updates := make(grid.Entries)
	for row, id := range h.cfg.Roster.EmployeeIDs {
		for i, date := range dates {
			updates[grid.MakeKey(id, date)] = rotation[(i+row)%len(rotation)]
		}
	}

	sched := grid.NewSchedule(h.store, h.opts.Department, year)
	if err := sched.Load(ctx); err != nil {
		return err
	}
	sched.BatchSetDraftCells(updates)
	if _, err := sched.Publish(ctx); err != nil {
		return fmt.Errorf("publish %d rotation: %w", year, err)
	}
	return nil
}
