/*
editor.go - Editing session over one department schedule

PURPOSE:
  Wires the engine parts into one explicitly owned session object:
  a shared Schedule, UndoStack and Aggregator, plus one Table per
  rendered grid ("main" and the optional "offset" quarter view), each
  owning its own SlotIndex and Selection.

ROUTING:
  The session keeps an explicit active-table pointer. Mouse events name
  their table and focus it; keyboard shortcuts (Ctrl+C/V/Z, Escape)
  always go to the active table.

RESULTS:
  Every user action returns a Result with a user-facing message. Input
  problems (no selection, empty or malformed clipboard, empty undo stack)
  are reported as no-op results and never mutate state. Only save,
  publish, discard and year switching reach the persistence collaborator,
  and their failures leave in-memory state unchanged.

CONCURRENCY:
  Events are serialized by the session mutex. Publish and save release it
  while the persistence call is in flight, so the grid stays editable;
  such edits stay pending for the next publish.

SEE ALSO:
  - schedule.go: Draft/production semantics
  - clipboard.go: Paste strategies
  - keys.go: Shortcut mapping
*/
package grid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// TABLES
// =============================================================================

type TableName string

const (
	TableMain   TableName = "main"
	TableOffset TableName = "offset"
)

// Table is one rendered grid: its day columns and its own selection.
type Table struct {
	Name      TableName
	Slots     *SlotIndex
	Selection *Selection
	offset    int
}

// =============================================================================
// RESULTS
// =============================================================================

type ResultKind string

const (
	ResultOK      ResultKind = "ok"
	ResultInfo    ResultKind = "info"
	ResultWarning ResultKind = "warning"
	ResultError   ResultKind = "error"
)

// Result is the status message of a user action.
type Result struct {
	Kind     ResultKind `json:"kind"`
	Message  string     `json:"message"`
	Cells    int        `json:"cells,omitempty"`    // cells written or copied
	Changed  int        `json:"changed,omitempty"`  // entries published
	Strategy Strategy   `json:"strategy,omitempty"` // paste strategy of the last region
	Err      error      `json:"-"`
}

func done(msg string, args ...any) Result {
	return Result{Kind: ResultOK, Message: fmt.Sprintf(msg, args...)}
}

// failure maps an error onto the user-facing message of its category.
func failure(err error) Result {
	r := Result{Kind: ResultWarning, Err: err}
	var unknown *UnknownStatusError
	switch {
	case errors.Is(err, ErrInvalidClipboard):
		r.Message = "Неверный формат данных"
	case errors.As(err, &unknown):
		r.Message = fmt.Sprintf("Неизвестный статус: %s", unknown.Code)
	case errors.Is(err, ErrNoSelection):
		r.Message = "Нет выделенных ячеек"
	case errors.Is(err, ErrEmptyClipboard):
		r.Message = "Буфер обмена пуст"
	case errors.Is(err, ErrNothingToUndo):
		r.Kind = ResultInfo
		r.Message = "Нечего отменять"
	case errors.Is(err, ErrNotEditing):
		r.Message = "Включите режим редактирования"
	case errors.Is(err, ErrUnknownCell):
		r.Message = "Ячейка вне таблицы"
	case errors.Is(err, ErrUnknownTable):
		r.Message = "Таблица не найдена"
	case errors.Is(err, ErrYearOutOfRange):
		r.Message = "Год вне допустимого диапазона"
	case errors.Is(err, ErrVersionNotFound):
		r.Message = "Версия не найдена"
	case errors.Is(err, ErrPublishInFlight):
		r.Message = "Публикация уже выполняется"
	default:
		r.Kind = ResultError
		r.Message = fmt.Sprintf("Ошибка сохранения: %v", err)
	}
	return r
}

// =============================================================================
// EDITOR
// =============================================================================

// Options configure an editing session.
type Options struct {
	Department   string
	Year         int
	OffsetMonths int // 0 disables the offset table
	UndoDepth    int
	MinYear      int // 0 = unbounded
	MaxYear      int // 0 = unbounded
	Logger       logrus.FieldLogger
}

// Editor is one editing session. Construct one per user session; it
// holds no package-level state.
type Editor struct {
	mu sync.Mutex

	store    Persistence
	opts     Options
	cfg      Config
	order    Order
	schedule *Schedule
	versions *VersionStore
	undo     *UndoStack
	agg      *Aggregator

	tables []*Table
	active TableName
	clip   Clip

	editing bool
	log     logrus.FieldLogger
}

// NewEditor builds a session. store must not be nil; use
// grid/store.NewMemory for a purely in-memory session. Call Open to load
// persisted state.
func NewEditor(store Persistence, cfg Config, opts Options) *Editor {
	if opts.Department == "" {
		opts.Department = cfg.Department
	}
	if opts.Year == 0 {
		opts.Year = time.Now().Year()
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	e := &Editor{
		store:    store,
		opts:     opts,
		cfg:      cfg,
		order:    cfg.Roster.Order(),
		schedule: NewSchedule(store, opts.Department, opts.Year),
		versions: NewVersionStore(store, opts.Department, opts.Year),
		undo:     NewUndoStack(opts.UndoDepth),
		agg:      NewAggregator(cfg.Statuses.Hours(), opts.Year),
		active:   TableMain,
		log:      log.WithField("department", opts.Department),
	}
	e.tables = append(e.tables, &Table{Name: TableMain, Slots: BuildSlotIndex(opts.Year, 0), Selection: NewSelection()})
	if opts.OffsetMonths != 0 {
		e.tables = append(e.tables, &Table{
			Name:      TableOffset,
			Slots:     BuildSlotIndex(opts.Year, opts.OffsetMonths),
			Selection: NewSelection(),
			offset:    opts.OffsetMonths,
		})
	}
	return e
}

// Open loads the roster and the schedule of the configured year.
func (e *Editor) Open(ctx context.Context) error {
	roster, err := LoadRoster(ctx, e.store, e.opts.Department)
	if err != nil {
		return err
	}
	if err := e.schedule.Load(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if roster != nil && len(roster.EmployeeIDs) > 0 {
		e.cfg.Roster = *roster
		e.order = roster.Order()
	}
	e.agg.Recompute(e.schedule.Entries())

	if err := AddYear(ctx, e.store, e.opts.Department, e.opts.Year); err != nil {
		e.log.WithError(err).Warn("Failed to record available year")
	}
	e.log.WithFields(logrus.Fields{
		"year":      e.opts.Year,
		"employees": e.order.Len(),
		"draft":     len(e.schedule.Draft()),
	}).Info("Schedule opened")
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

func (e *Editor) Year() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schedule.Year()
}

func (e *Editor) Department() string { return e.opts.Department }

// Order returns the current row order.
func (e *Editor) Order() Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order
}

// Roster returns the current roster.
func (e *Editor) Roster() Roster {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Roster
}

// Statuses returns the status table.
func (e *Editor) Statuses() StatusTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Statuses
}

// Schedule returns the shared schedule store.
func (e *Editor) Schedule() *Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schedule
}

// Status returns the displayed status of a cell.
func (e *Editor) Status(emp EmployeeID, date string) Code {
	return e.Schedule().Status(emp, date)
}

// HasUnsavedChanges drives the save/publish buttons.
func (e *Editor) HasUnsavedChanges() bool {
	return e.Schedule().HasUnsavedChanges()
}

// Editing reports whether edit mode is on.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing
}

// Tables lists the table names in render order.
func (e *Editor) Tables() []TableName {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]TableName, len(e.tables))
	for i, t := range e.tables {
		names[i] = t.Name
	}
	return names
}

// Active returns the table that receives keyboard shortcuts.
func (e *Editor) Active() TableName {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Clipboard returns the current clip.
func (e *Editor) Clipboard() Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clip
}

// UndoDepth returns how many snapshots are restorable.
func (e *Editor) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo.Len()
}

func (e *Editor) table(name TableName) (*Table, error) {
	for _, t := range e.tables {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

// =============================================================================
// SELECTION EVENTS
// =============================================================================

// Focus makes name the target of keyboard shortcuts.
func (e *Editor) Focus(name TableName) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.table(name); err != nil {
		return err
	}
	e.active = name
	return nil
}

// StartSelection handles mouse-down on a cell of table name and focuses it.
func (e *Editor) StartSelection(name TableName, c Cell, withCtrl bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return err
	}
	e.active = name
	t.Selection.Start(c, withCtrl)
	return nil
}

// UpdateSelection handles mouse-move while dragging.
func (e *Editor) UpdateSelection(name TableName, c Cell) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return err
	}
	t.Selection.Update(c)
	return nil
}

// EndSelection handles mouse-up.
func (e *Editor) EndSelection(name TableName) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return err
	}
	t.Selection.End()
	return nil
}

// ClearSelection drops every region of table name. Draft data is untouched.
func (e *Editor) ClearSelection(name TableName) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return err
	}
	t.Selection.Clear()
	return nil
}

// IsCellSelected is the highlight predicate of table name.
func (e *Editor) IsCellSelected(name TableName, emp EmployeeID, slot int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(name)
	if err != nil {
		return false
	}
	return t.Selection.IsCellSelected(e.order, emp, slot)
}

// =============================================================================
// EDIT MODE
// =============================================================================

// EnterEdit turns edit mode on.
func (e *Editor) EnterEdit() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = true
	return done("Режим редактирования включён")
}

// ExitEdit turns edit mode off and drops the undo history. The draft is
// kept; it can still be saved, published or discarded.
func (e *Editor) ExitEdit() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = false
	e.undo.Clear()
	for _, t := range e.tables {
		t.Selection.Clear()
	}
	return done("Режим редактирования выключен")
}

// =============================================================================
// EDITS
// =============================================================================

// SetCell writes one draft cell. Single-cell edits do not push an undo
// snapshot; undo covers batch mutations.
func (e *Editor) SetCell(emp EmployeeID, date string, code Code) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return failure(ErrNotEditing)
	}
	if !e.cfg.Statuses.Has(code) {
		return failure(&UnknownStatusError{Code: code})
	}
	if _, known := e.order.IndexOf(emp); !known {
		return failure(fmt.Errorf("%w: employee %s", ErrUnknownCell, emp))
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return failure(fmt.Errorf("%w: date %q", ErrUnknownCell, date))
	}

	change := e.schedule.SetDraftCell(emp, date, code)
	e.agg.Apply([]Change{change})
	r := done("Ячейка обновлена")
	r.Cells = 1
	return r
}

// Fill writes code into every selected cell of the active table.
func (e *Editor) Fill(code Code) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return failure(ErrNotEditing)
	}
	if !e.cfg.Statuses.Has(code) {
		return failure(&UnknownStatusError{Code: code})
	}
	t, err := e.table(e.active)
	if err != nil {
		return failure(err)
	}
	cells := t.Selection.Cells(e.order, t.Slots.Len())
	if len(cells) == 0 {
		return failure(ErrNoSelection)
	}

	updates := make(Entries, len(cells))
	for _, c := range cells {
		updates[MakeKey(c.Employee, t.Slots.DateAt(c.Slot))] = code
	}
	e.applyBatchLocked(updates)

	e.log.WithFields(logrus.Fields{"table": t.Name, "code": code, "cells": len(updates)}).Info("Cells filled")
	r := done("Заполнено ячеек: %d", len(updates))
	r.Cells = len(updates)
	return r
}

// Copy serializes the last region of the active table.
func (e *Editor) Copy() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, err := e.table(e.active)
	if err != nil {
		return failure(err)
	}
	clip, err := Copy(t.Selection.Regions(), e.order, t.Slots, e.schedule)
	if err != nil {
		return failure(err)
	}
	e.clip = clip
	r := done("Скопировано: %d×%d", clip.Rows(), clip.Cols())
	r.Cells = clip.Rows() * clip.Cols()
	return r
}

// Paste writes the clipboard into every region of the active table as
// one batch. The clipboard is kept for further pastes.
func (e *Editor) Paste() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pasteLocked(e.clip)
}

// PasteExternal parses clipboard content that came from outside the
// session (serialized JSON grid or tab-separated text) and pastes it.
// Content that is neither is rejected without mutation.
func (e *Editor) PasteExternal(raw []byte) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	clip, err := ParseClip(raw, e.cfg.Statuses)
	if err != nil && len(raw) > 0 && raw[0] != '{' {
		clip, err = ParseClipTSV(string(raw), e.cfg.Statuses)
	}
	if err != nil {
		return failure(err)
	}
	r := e.pasteLocked(clip)
	if r.Kind == ResultOK {
		e.clip = clip
	}
	return r
}

func (e *Editor) pasteLocked(clip Clip) Result {
	if !e.editing {
		return failure(ErrNotEditing)
	}
	if clip.IsEmpty() {
		return failure(ErrEmptyClipboard)
	}
	t, err := e.table(e.active)
	if err != nil {
		return failure(err)
	}
	regions := t.Selection.Regions()
	updates, err := Paste(clip, regions, e.order, t.Slots)
	if err != nil {
		return failure(err)
	}
	e.applyBatchLocked(updates)

	var strategy Strategy
	if r, ok := regions[len(regions)-1].Bounds(e.order); ok {
		strategy = ChooseStrategy(clip.Rows(), clip.Cols(), r.Rows(), r.Cols())
	}
	e.log.WithFields(logrus.Fields{
		"table":    t.Name,
		"regions":  len(regions),
		"cells":    len(updates),
		"strategy": strategy,
	}).Info("Clipboard pasted")

	r := done("Вставлено ячеек: %d", len(updates))
	r.Cells = len(updates)
	r.Strategy = strategy
	return r
}

// applyBatchLocked snapshots the draft for undo, then writes updates in
// one batch and feeds the changes to the aggregator.
func (e *Editor) applyBatchLocked(updates Entries) {
	e.undo.Push(e.schedule.Draft())
	e.agg.Apply(e.schedule.BatchSetDraftCells(updates))
}

// Undo restores the draft captured before the last batch edit.
func (e *Editor) Undo() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return failure(ErrNotEditing)
	}
	snapshot, found := e.undo.Pop()
	if !found {
		return failure(ErrNothingToUndo)
	}
	changes := e.schedule.ReplaceDraft(snapshot)
	e.agg.Apply(changes)
	r := done("Действие отменено")
	r.Cells = len(changes)
	return r
}

// =============================================================================
// PERSISTENCE ACTIONS
// =============================================================================

// Save persists the draft without publishing.
func (e *Editor) Save(ctx context.Context) Result {
	sched := e.Schedule()
	if err := sched.SaveDraft(ctx); err != nil {
		if !errors.Is(err, ErrPublishInFlight) {
			e.log.WithError(err).Error("Failed to save draft")
		}
		return failure(err)
	}
	return done("Черновик сохранён")
}

// Publish moves the draft into production. The session lock is not held
// during the persistence call.
func (e *Editor) Publish(ctx context.Context) Result {
	sched := e.Schedule()
	changed, err := sched.Publish(ctx)
	if err != nil {
		if !errors.Is(err, ErrPublishInFlight) {
			e.log.WithError(err).Error("Failed to publish schedule")
		}
		return failure(err)
	}

	// Edits made while the publish was in flight may have dropped draft
	// keys that production now holds, so totals are rebuilt.
	e.mu.Lock()
	e.undo.Clear()
	if e.schedule == sched {
		e.agg.Recompute(sched.Entries())
	}
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{"year": sched.Year(), "changed": changed}).Info("Schedule published")
	r := done("Опубликовано изменений: %d", changed)
	r.Changed = changed
	return r
}

// Discard drops the draft and the undo history.
func (e *Editor) Discard(ctx context.Context) Result {
	sched := e.Schedule()
	if err := sched.Discard(ctx); err != nil {
		e.log.WithError(err).Error("Failed to discard draft")
		return failure(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.undo.Clear()
	e.agg.Recompute(e.schedule.Entries())
	return done("Изменения отменены")
}

// SwitchYear moves the session to another year. The years outside
// [MinYear, MaxYear] are rejected before anything is touched.
func (e *Editor) SwitchYear(ctx context.Context, year int) Result {
	if (e.opts.MinYear != 0 && year < e.opts.MinYear) || (e.opts.MaxYear != 0 && year > e.opts.MaxYear) {
		return failure(&YearRangeError{Year: year, Min: e.opts.MinYear, Max: e.opts.MaxYear})
	}
	if e.Schedule().Publishing() {
		return failure(ErrPublishInFlight)
	}

	next := NewSchedule(e.store, e.opts.Department, year)
	if err := next.Load(ctx); err != nil {
		e.log.WithError(err).WithField("year", year).Error("Failed to load schedule")
		return failure(err)
	}
	if err := AddYear(ctx, e.store, e.opts.Department, year); err != nil {
		e.log.WithError(err).Warn("Failed to record available year")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.schedule = next
	e.versions = NewVersionStore(e.store, e.opts.Department, year)
	e.undo.Clear()
	e.agg = NewAggregator(e.cfg.Statuses.Hours(), year)
	e.agg.Recompute(next.Entries())
	for _, t := range e.tables {
		t.Slots = BuildSlotIndex(year, t.offset)
		t.Selection.Clear()
	}
	e.log.WithField("year", year).Info("Year switched")
	return done("Открыт %d год", year)
}

// Years lists the department's available years.
func (e *Editor) Years(ctx context.Context) ([]int, error) {
	return LoadYears(ctx, e.store, e.opts.Department)
}

// SetStatuses replaces the status table and recomputes the hour totals.
func (e *Editor) SetStatuses(statuses StatusTable) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Statuses = statuses
	e.agg.SetHours(statuses.Hours(), e.schedule.Entries())
}

// =============================================================================
// VERSIONS
// =============================================================================

// SaveVersion stores a named snapshot of the published schedule.
func (e *Editor) SaveVersion(ctx context.Context, name string) (Version, error) {
	e.mu.Lock()
	vs, prod := e.versions, e.schedule.Production()
	e.mu.Unlock()

	v, err := vs.Save(ctx, name, prod)
	if err != nil {
		e.log.WithError(err).Error("Failed to save version")
		return Version{}, err
	}
	e.log.WithFields(logrus.Fields{"version": v.ID, "name": name, "entries": len(prod)}).Info("Version saved")
	return v, nil
}

// ListVersions returns the named snapshots of the current year.
func (e *Editor) ListVersions(ctx context.Context) ([]Version, error) {
	e.mu.Lock()
	vs := e.versions
	e.mu.Unlock()
	return vs.List(ctx)
}

// RestoreVersion loads a snapshot into the draft as one undoable batch.
// Cells that exist in production but not in the snapshot are cleared.
func (e *Editor) RestoreVersion(ctx context.Context, id string) Result {
	e.mu.Lock()
	vs := e.versions
	e.mu.Unlock()

	v, err := vs.Get(ctx, id)
	if err != nil {
		return failure(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.editing {
		return failure(ErrNotEditing)
	}
	updates := v.Entries.Clone()
	for k := range e.schedule.Entries() {
		if _, keep := updates[k]; !keep {
			updates[k] = ""
		}
	}
	if len(updates) == 0 {
		return done("Версия пуста")
	}
	e.applyBatchLocked(updates)
	r := done("Версия «%s» загружена в черновик", v.Name)
	r.Cells = len(updates)
	return r
}

// =============================================================================
// SUMMARY
// =============================================================================

// QuarterSummary returns fact, norm and delta per employee and quarter.
func (e *Editor) QuarterSummary() []QuarterSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg.Summary(e.order, e.cfg.Norms)
}

// QuarterTotals returns the raw nonzero totals keyed employeeId-Qn.
func (e *Editor) QuarterTotals() map[string]decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agg.Totals()
}
