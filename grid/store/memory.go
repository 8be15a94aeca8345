// Package store provides Persistence implementations.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/shift-grid/grid"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

var _ grid.Persistence = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

// Get returns a copy of the document, or nil when absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(key), nil
}

// Put stores a copy of value.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(key, value)
	return nil
}

// Remove deletes a document. Removing a missing key is not an error.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

// Keys returns every key with prefix, sorted.
func (m *Memory) Keys(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Reset clears all documents (for testing/demo).
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string][]byte)
	return nil
}

func (m *Memory) getLocked(key string) []byte {
	v, ok := m.docs[key]
	if !ok {
		return nil
	}
	return append([]byte(nil), v...)
}

func (m *Memory) putLocked(key string, value []byte) {
	m.docs[key] = append([]byte(nil), value...)
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

var _ grid.TxPersistence = (*TxMemory)(nil)

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(grid.Persistence) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(&txMemoryView{parent: tm}); err != nil {
		tm.docs = snapshot
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() map[string][]byte {
	out := make(map[string][]byte, len(tm.docs))
	for k, v := range tm.docs {
		out[k] = v
	}
	return out
}

// txMemoryView writes straight into the parent, whose lock is held.
type txMemoryView struct {
	parent *TxMemory
}

func (tv *txMemoryView) Get(_ context.Context, key string) ([]byte, error) {
	return tv.parent.getLocked(key), nil
}

func (tv *txMemoryView) Put(_ context.Context, key string, value []byte) error {
	tv.parent.putLocked(key, value)
	return nil
}

func (tv *txMemoryView) Remove(_ context.Context, key string) error {
	delete(tv.parent.docs, key)
	return nil
}
