/*
Package sqlite provides a SQLite-backed implementation of grid.Persistence.

PURPOSE:
  Stores the engine's JSON documents (published schedule, draft, roster,
  available years, version snapshots) as rows of a single key/value table.
  The same layout is used by the PostgreSQL store; only the SQL dialect
  differs.

INTERFACES IMPLEMENTED:
  grid.Persistence:   Get / Put / Remove
  grid.TxPersistence: WithTx (publish writes schedule and removes draft
                      in one transaction)

KEY TABLES:
  documents: key TEXT PRIMARY KEY, value TEXT, updated_at TEXT

INDEXES:
  - idx_documents_updated_at: admin listing of recently touched documents

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/shifts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  editor := grid.NewEditor(store, cfg, opts)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - grid/store.go: Interface definitions and document keys
  - grid/store/memory.go: In-memory implementation for testing
  - store/postgres: PostgreSQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/shift-grid/grid"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements grid.TxPersistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ grid.TxPersistence = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_documents_updated_at
		ON documents(updated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DOCUMENT STORE (grid.Persistence interface)
// =============================================================================

// Get returns the document stored under key, or nil when absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return get(ctx, s.db, key)
}

// Put upserts a document.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return put(ctx, s.db, key, value)
}

// Remove deletes a document. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return remove(ctx, s.db, key)
}

func get(ctx context.Context, db execer, key string) ([]byte, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM documents WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return []byte(value), nil
}

func put(ctx context.Context, db execer, key string, value []byte) error {
	query := `
		INSERT INTO documents (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func remove(ctx context.Context, db execer, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM documents WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (grid.TxPersistence interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(grid.Persistence) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, ts.tx, key)
}

func (ts *txStore) Put(ctx context.Context, key string, value []byte) error {
	return put(ctx, ts.tx, key, value)
}

func (ts *txStore) Remove(ctx context.Context, key string) error {
	return remove(ctx, ts.tx, key)
}

// =============================================================================
// UTILITIES
// =============================================================================

// DocumentInfo describes a stored document without its body.
type DocumentInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Keys lists the documents whose key starts with prefix, newest first.
func (s *Store) Keys(ctx context.Context, prefix string) ([]DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, LENGTH(value), updated_at FROM documents WHERE substr(key, 1, ?) = ? ORDER BY updated_at DESC, key",
		len(prefix), prefix,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		var updatedAt string
		if err := rows.Scan(&d.Key, &d.Size, &updatedAt); err != nil {
			return nil, err
		}
		d.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM documents")
	return err
}
