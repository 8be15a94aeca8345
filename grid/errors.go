/*
errors.go - Centralized error types for the grid engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The editor turns these into user-facing status messages; the API maps
  them to HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors - No selection, empty or malformed clipboard,
     unknown status code. Reported as no-op messages, never mutate state.
  2. Informational - Nothing to undo.
  3. Persistence errors - The document store rejected a read or write.
     In-memory state is left intact so the user can retry.
  4. Busy - A publish is already in flight.

SEE ALSO:
  - editor.go: Converts errors into Result messages
  - schedule.go: Produces persistence and busy errors
*/
package grid

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoSelection is returned when an operation needs selected cells.
	ErrNoSelection = errors.New("no active selection")

	// ErrEmptyClipboard is returned when pasting before anything was copied.
	ErrEmptyClipboard = errors.New("clipboard is empty")

	// ErrInvalidClipboard is returned when external clipboard content is not
	// a serialized grid.
	ErrInvalidClipboard = errors.New("invalid clipboard data")

	// ErrNothingToUndo is returned when the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrUnknownStatus is returned when a code is not in the status table.
	ErrUnknownStatus = errors.New("unknown status code")

	// ErrUnknownCell is returned when an edit addresses a cell outside the
	// roster or with a malformed date.
	ErrUnknownCell = errors.New("cell outside the grid")

	// ErrUnknownTable is returned when a table name is not registered.
	ErrUnknownTable = errors.New("unknown table")

	// ErrNotEditing is returned when a mutation arrives outside edit mode.
	ErrNotEditing = errors.New("edit mode is off")

	// ErrPublishInFlight is returned when a second publish overlaps the first.
	ErrPublishInFlight = errors.New("publish already in progress")

	// ErrPersistence is returned when the document store fails.
	ErrPersistence = errors.New("persistence failed")

	// ErrYearOutOfRange is returned by calendar navigation outside bounds.
	ErrYearOutOfRange = errors.New("year out of range")

	// ErrVersionNotFound is returned when a named snapshot does not exist.
	ErrVersionNotFound = errors.New("version not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistenceError records which document operation failed.
type PersistenceError struct {
	Op  string // get, put, remove, tx
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// UnknownStatusError names the rejected code.
type UnknownStatusError struct {
	Code Code
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown status code %q", e.Code)
}

func (e *UnknownStatusError) Unwrap() error {
	return ErrUnknownStatus
}

// YearRangeError reports the allowed navigation bounds.
type YearRangeError struct {
	Year     int
	Min, Max int
}

func (e *YearRangeError) Error() string {
	return fmt.Sprintf("year %d outside [%d, %d]", e.Year, e.Min, e.Max)
}

func (e *YearRangeError) Unwrap() error {
	return ErrYearOutOfRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid user input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoSelection) ||
		errors.Is(err, ErrEmptyClipboard) ||
		errors.Is(err, ErrInvalidClipboard) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrUnknownCell) ||
		errors.Is(err, ErrNotEditing) ||
		errors.Is(err, ErrYearOutOfRange)
}

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) || errors.Is(err, ErrPublishInFlight)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownTable) || errors.Is(err, ErrVersionNotFound)
}
