/*
handlers.go - HTTP API handlers for the shift grid editor

PURPOSE:
  Exposes one grid editing session via REST API. Handles HTTP
  request/response and JSON serialization, and delegates every decision
  to grid.Editor.

ENDPOINTS:
  Grid:
    GET    /api/grid?table=main               Render model of a table
    POST   /api/tables/{table}/focus          Make table receive shortcuts
    POST   /api/tables/{table}/selection/start  Mouse down
    POST   /api/tables/{table}/selection/update Mouse move
    POST   /api/tables/{table}/selection/end    Mouse up
    DELETE /api/tables/{table}/selection      Clear selection

  Editing:
    POST   /api/keys                          Keyboard shortcut
    PUT    /api/cells                         Single cell edit
    POST   /api/fill                          Fill selection with a code
    POST   /api/copy | /api/paste | /api/undo
    POST   /api/clipboard                     Paste system clipboard text
    POST   /api/edit/enter | /api/edit/exit

  Persistence:
    POST   /api/save | /api/publish | /api/discard
    GET    /api/year                          Current and available years
    POST   /api/year                          Switch year

  Reports:
    GET    /api/summary                       Quarter fact/norm/delta
    GET    /api/statuses                      Status catalogue

  Versions:
    GET    /api/versions                      List snapshots
    POST   /api/versions                      Snapshot production
    POST   /api/versions/{id}/restore         Load snapshot into draft

ERROR HANDLING:
  Every action returns a grid.Result. The HTTP status follows its error:
  - 400: Validation errors (no selection, bad clipboard, unknown status)
  - 404: Unknown table or version
  - 409: Publish already in flight
  - 500: Persistence failures

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/warp/shift-grid/grid"
)

// maxClipboardBytes bounds the body of POST /api/clipboard.
const maxClipboardBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store grid.Persistence
	cfg   grid.Config
	opts  grid.Options
	log   logrus.FieldLogger

	mu     sync.RWMutex
	editor *grid.Editor

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler. Call Open before serving.
func NewHandler(store grid.Persistence, cfg grid.Config, opts grid.Options, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts.Logger = log
	return &Handler{store: store, cfg: cfg, opts: opts, log: log}
}

// Open starts a fresh editing session over the store.
func (h *Handler) Open(ctx context.Context) error {
	ed := grid.NewEditor(h.store, h.cfg, h.opts)
	if err := ed.Open(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.editor = ed
	h.mu.Unlock()
	return nil
}

// Editor returns the current session.
func (h *Handler) Editor() *grid.Editor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.editor
}

// =============================================================================
// GRID HANDLERS
// =============================================================================

// GetGrid returns the render model of ?table= (default: the active table).
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	ed := h.Editor()
	name := grid.TableName(r.URL.Query().Get("table"))
	if name == "" {
		name = ed.Active()
	}
	view, err := ed.View(name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGridDTO(view))
}

// Focus makes {table} the target of keyboard shortcuts.
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	if err := h.Editor().Focus(tableParam(r)); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartSelection handles mouse down.
func (h *Handler) StartSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	h.selectionEvent(w, h.Editor().StartSelection(tableParam(r), cellOf(req), req.Ctrl))
}

// UpdateSelection handles mouse move while dragging.
func (h *Handler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	h.selectionEvent(w, h.Editor().UpdateSelection(tableParam(r), cellOf(req)))
}

// EndSelection handles mouse up.
func (h *Handler) EndSelection(w http.ResponseWriter, r *http.Request) {
	h.selectionEvent(w, h.Editor().EndSelection(tableParam(r)))
}

// ClearSelection drops every region of {table}.
func (h *Handler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.selectionEvent(w, h.Editor().ClearSelection(tableParam(r)))
}

func (h *Handler) selectionEvent(w http.ResponseWriter, err error) {
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// EDITING HANDLERS
// =============================================================================

// HandleKey routes a keyboard shortcut. Events that are not shortcuts get
// 204 so the browser can let them through.
func (h *Handler) HandleKey(w http.ResponseWriter, r *http.Request) {
	var ev grid.KeyEvent
	if !decode(w, r, &ev) {
		return
	}
	ed := h.Editor()
	res, handled := ed.HandleKey(ev)
	if !handled {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if grid.ActionFor(ev) == grid.ActionCopy {
		writeCopy(w, ed, res)
		return
	}
	writeResult(w, res)
}

// SetCell writes one draft cell.
func (h *Handler) SetCell(w http.ResponseWriter, r *http.Request) {
	var req SetCellRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.Editor().SetCell(grid.EmployeeID(req.EmployeeID), req.Date, grid.Code(req.Code)))
}

// Fill writes one code into every selected cell of the active table.
func (h *Handler) Fill(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.Editor().Fill(grid.Code(req.Code)))
}

// Copy copies the last region of the active table.
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	ed := h.Editor()
	writeCopy(w, ed, ed.Copy())
}

// Paste pastes the session clipboard into the active table.
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().Paste())
}

// PasteClipboard pastes the raw system clipboard (JSON grid or TSV).
func (h *Handler) PasteClipboard(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxClipboardBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read clipboard", err)
		return
	}
	writeResult(w, h.Editor().PasteExternal(raw))
}

// Undo restores the draft before the last batch edit.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().Undo())
}

// EnterEdit turns edit mode on.
func (h *Handler) EnterEdit(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().EnterEdit())
}

// ExitEdit turns edit mode off.
func (h *Handler) ExitEdit(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().ExitEdit())
}

// =============================================================================
// PERSISTENCE HANDLERS
// =============================================================================

// Save persists the draft.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().Save(r.Context()))
}

// Publish moves the draft into production.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().Publish(r.Context()))
}

// Discard drops the draft.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().Discard(r.Context()))
}

// GetYear returns the current year and the available years.
func (h *Handler) GetYear(w http.ResponseWriter, r *http.Request) {
	ed := h.Editor()
	years, err := ed.Years(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, YearDTO{Year: ed.Year(), Available: years})
}

// SwitchYear moves the session to another year.
func (h *Handler) SwitchYear(w http.ResponseWriter, r *http.Request) {
	var req YearRequest
	if !decode(w, r, &req) {
		return
	}
	writeResult(w, h.Editor().SwitchYear(r.Context(), req.Year))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary returns fact, norm and delta per employee and quarter.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTOs(h.Editor().QuarterSummary()))
}

// ListStatuses returns the status catalogue.
func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStatusDTOs(h.Editor().Statuses()))
}

// =============================================================================
// VERSION HANDLERS
// =============================================================================

// ListVersions returns the snapshots of the current year, newest first.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Editor().ListVersions(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	dtos := make([]VersionDTO, len(versions))
	for i, v := range versions {
		dtos[i] = toVersionDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveVersion snapshots production under a name.
func (h *Handler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	var req SaveVersionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	v, err := h.Editor().SaveVersion(r.Context(), req.Name)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionDTO(v))
}

// RestoreVersion loads snapshot {id} into the draft.
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.Editor().RestoreVersion(r.Context(), chi.URLParam(r, "id")))
}

// =============================================================================
// HELPERS
// =============================================================================

func tableParam(r *http.Request) grid.TableName {
	return grid.TableName(chi.URLParam(r, "table"))
}

func cellOf(req SelectionRequest) grid.Cell {
	return grid.Cell{Employee: grid.EmployeeID(req.EmployeeID), Slot: req.Slot}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeEngineError maps an engine error onto its HTTP status.
func writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	writeError(w, status, http.StatusText(status), err)
}

func writeResult(w http.ResponseWriter, res grid.Result) {
	status := http.StatusOK
	if res.Err != nil && res.Kind != grid.ResultInfo {
		status = statusFor(res.Err)
	}
	writeJSON(w, status, res)
}

func writeCopy(w http.ResponseWriter, ed *grid.Editor, res grid.Result) {
	if res.Kind != grid.ResultOK {
		writeResult(w, res)
		return
	}
	clip := ed.Clipboard()
	writeJSON(w, http.StatusOK, CopyDTO{Result: res, Clipboard: &clip, Text: clip.TSV()})
}

func statusFor(err error) int {
	switch {
	case grid.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrPublishInFlight):
		return http.StatusConflict
	case grid.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
