/*
store.go - Persistence contract for schedule documents

PURPOSE:
  Defines the boundary between the engine and the external key-value
  document store. The engine only ever reads and writes whole JSON
  documents by key; it never queries inside them.

KEY INTERFACES:
  Persistence:   get / put / remove of JSON documents
  TxPersistence: Atomic multi-document writes (publish)

DOCUMENT KEYS:
  schedule:{dept}:{year}   Published schedule (Entries)
  draft:{dept}:{year}      Pending draft overlay (Entries)
  employees:{dept}         Roster (Roster)
  years:{dept}             Available years ([]int)
  versions:{dept}:{year}   Named production snapshots ([]Version)

IMPLEMENTATIONS:
  - grid/store/memory.go: In-memory for testing and dev
  - store/sqlite/sqlite.go: SQLite documents table
  - store/postgres/postgres.go: PostgreSQL documents table

SEE ALSO:
  - schedule.go: Loads and publishes through Persistence
*/
package grid

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Persistence is the external document store.
// Get returns nil, nil when the key is absent.
type Persistence interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// TxPersistence wraps Persistence with transaction support.
// If fn returns error, every write made through the view is rolled back.
type TxPersistence interface {
	Persistence
	WithTx(ctx context.Context, fn func(Persistence) error) error
}

// =============================================================================
// DOCUMENT KEYS
// =============================================================================

func ScheduleKey(dept string, year int) string { return fmt.Sprintf("schedule:%s:%d", dept, year) }
func DraftKey(dept string, year int) string    { return fmt.Sprintf("draft:%s:%d", dept, year) }
func EmployeesKey(dept string) string          { return "employees:" + dept }
func YearsKey(dept string) string              { return "years:" + dept }
func VersionsKey(dept string, year int) string { return fmt.Sprintf("versions:%s:%d", dept, year) }

// =============================================================================
// JSON HELPERS
// =============================================================================

// getJSON loads a document into out. Returns false when the key is absent.
func getJSON(ctx context.Context, p Persistence, key string, out any) (bool, error) {
	raw, err := p.Get(ctx, key)
	if err != nil {
		return false, &PersistenceError{Op: "get", Key: key, Err: err}
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, &PersistenceError{Op: "get", Key: key, Err: fmt.Errorf("decode: %w", err)}
	}
	return true, nil
}

func putJSON(ctx context.Context, p Persistence, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.Put(ctx, key, raw); err != nil {
		return &PersistenceError{Op: "put", Key: key, Err: err}
	}
	return nil
}

func remove(ctx context.Context, p Persistence, key string) error {
	if err := p.Remove(ctx, key); err != nil {
		return &PersistenceError{Op: "remove", Key: key, Err: err}
	}
	return nil
}

// withTx runs fn atomically when the store supports it, directly otherwise.
func withTx(ctx context.Context, p Persistence, fn func(Persistence) error) error {
	if tx, ok := p.(TxPersistence); ok {
		return tx.WithTx(ctx, fn)
	}
	return fn(p)
}

// LoadRoster reads the department roster document.
func LoadRoster(ctx context.Context, p Persistence, dept string) (*Roster, error) {
	var r Roster
	ok, err := getJSON(ctx, p, EmployeesKey(dept), &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// SaveRoster writes the department roster document.
func SaveRoster(ctx context.Context, p Persistence, dept string, r Roster) error {
	return putJSON(ctx, p, EmployeesKey(dept), r)
}

// LoadYears reads the department's available years, ascending.
func LoadYears(ctx context.Context, p Persistence, dept string) ([]int, error) {
	var years []int
	if _, err := getJSON(ctx, p, YearsKey(dept), &years); err != nil {
		return nil, err
	}
	sort.Ints(years)
	return years, nil
}

// AddYear records year in the available-years document. Existing years
// are left alone and no write happens.
func AddYear(ctx context.Context, p Persistence, dept string, year int) error {
	years, err := LoadYears(ctx, p, dept)
	if err != nil {
		return err
	}
	if slices.Contains(years, year) {
		return nil
	}
	years = append(years, year)
	sort.Ints(years)
	return putJSON(ctx, p, YearsKey(dept), years)
}
