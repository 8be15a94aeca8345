// Package postgres provides a PostgreSQL-backed grid.Persistence on a
// pgx connection pool. Documents live in one JSONB key/value table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warp/shift-grid/grid"
)

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements grid.TxPersistence.
type Store struct {
	pool *pgxpool.Pool
}

var _ grid.TxPersistence = (*Store)(nil)

// New connects to dsn, pings the server and migrates the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			key TEXT PRIMARY KEY,
			value JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	return get(ctx, s.pool, key)
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return put(ctx, s.pool, key, value)
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return remove(ctx, s.pool, key)
}

// WithTx executes fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(grid.Persistence) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&txStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DocumentInfo describes a stored document without its body.
type DocumentInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Keys lists the documents whose key starts with prefix, newest first.
func (s *Store) Keys(ctx context.Context, prefix string) ([]DocumentInfo, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT key, octet_length(value::text), updated_at FROM documents WHERE left(key, $1) = $2 ORDER BY updated_at DESC, key",
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var d DocumentInfo
		if err := rows.Scan(&d.Key, &d.Size, &d.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Reset clears all documents (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "TRUNCATE TABLE documents")
	return err
}

type txStore struct {
	tx pgx.Tx
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

func get(ctx context.Context, q Querier, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRow(ctx, "SELECT value::text FROM documents WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return value, nil
}

func put(ctx context.Context, q Querier, key string, value []byte) error {
	query := `
		INSERT INTO documents (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := q.Exec(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func remove(ctx context.Context, q Querier, key string) error {
	if _, err := q.Exec(ctx, "DELETE FROM documents WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
