package grid_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-grid/grid"
	"github.com/warp/shift-grid/grid/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var errStoreDown = errors.New("store down")

func hours(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testStatuses() grid.StatusTable {
	return grid.StatusTable{
		"Д": {Code: "Д", Label: "День", Hours: hours("12")},
		"Н": {Code: "Н", Label: "Ночь", Hours: hours("12")},
		"8": {Code: "8", Label: "8 часов", Hours: hours("8")},
		"4": {Code: "4", Label: "Полсмены", Hours: hours("4.5")},
		"В": {Code: "В", Label: "Выходной", Hours: decimal.Zero},
		"О": {Code: "О", Label: "Отпуск", Hours: decimal.Zero},
	}
}

var testEmployees = []grid.EmployeeID{"e1", "e2", "e3", "e4"}

func testConfig() grid.Config {
	employees := make(map[grid.EmployeeID]grid.Employee, len(testEmployees))
	for _, id := range testEmployees {
		employees[id] = grid.Employee{ID: id, Name: string(id) + " name"}
	}
	return grid.Config{
		Department: "icu",
		Statuses:   testStatuses(),
		Roster:     grid.Roster{Employees: employees, EmployeeIDs: testEmployees},
		Norms: grid.Norms{
			1: hours("136"), 2: hours("160"), 3: hours("167"),
			4: hours("175"), 5: hours("144"), 6: hours("151"),
		},
	}
}

func testOrder() grid.Order {
	return grid.NewOrder(testEmployees)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newTestEditor opens a 2025 session with an offset table and edit mode on.
func newTestEditor(t *testing.T, p grid.Persistence) *grid.Editor {
	t.Helper()
	ed := grid.NewEditor(p, testConfig(), grid.Options{
		Year:         2025,
		OffsetMonths: 3,
		UndoDepth:    grid.DefaultUndoDepth,
		MinYear:      2020,
		MaxYear:      2030,
		Logger:       quietLogger(),
	})
	require.NoError(t, ed.Open(context.Background()))
	ed.EnterEdit()
	return ed
}

// selectRect drags a rectangle on table name.
func selectRect(t *testing.T, ed *grid.Editor, name grid.TableName, from, to grid.Cell, ctrl bool) {
	t.Helper()
	require.NoError(t, ed.StartSelection(name, from, ctrl))
	require.NoError(t, ed.UpdateSelection(name, to))
	require.NoError(t, ed.EndSelection(name))
}

func cell(emp grid.EmployeeID, slot int) grid.Cell {
	return grid.Cell{Employee: emp, Slot: slot}
}

// totalsAsStrings makes decimal maps comparable with assert.Equal.
func totalsAsStrings(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

// =============================================================================
// FLAKY STORE - Injects failures and pauses into persistence calls
// =============================================================================

type flakyStore struct {
	*store.TxMemory

	mu   sync.Mutex
	hook func(op, key string) error
}

var _ grid.TxPersistence = (*flakyStore)(nil)

func newFlakyStore() *flakyStore {
	return &flakyStore{TxMemory: store.NewTxMemory()}
}

func (f *flakyStore) setHook(h func(op, key string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = h
}

// failOn makes every op on keys with the given prefix fail.
func (f *flakyStore) failOn(op, prefix string) {
	f.setHook(func(gotOp, key string) error {
		if gotOp == op && len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			return errStoreDown
		}
		return nil
	})
}

func (f *flakyStore) check(op, key string) error {
	f.mu.Lock()
	h := f.hook
	f.mu.Unlock()
	if h == nil {
		return nil
	}
	return h(op, key)
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.check("get", key); err != nil {
		return nil, err
	}
	return f.TxMemory.Get(ctx, key)
}

func (f *flakyStore) Put(ctx context.Context, key string, value []byte) error {
	if err := f.check("put", key); err != nil {
		return err
	}
	return f.TxMemory.Put(ctx, key, value)
}

func (f *flakyStore) Remove(ctx context.Context, key string) error {
	if err := f.check("remove", key); err != nil {
		return err
	}
	return f.TxMemory.Remove(ctx, key)
}

func (f *flakyStore) WithTx(ctx context.Context, fn func(grid.Persistence) error) error {
	return f.TxMemory.WithTx(ctx, func(p grid.Persistence) error {
		return fn(&flakyView{inner: p, f: f})
	})
}

type flakyView struct {
	inner grid.Persistence
	f     *flakyStore
}

func (v *flakyView) Get(ctx context.Context, key string) ([]byte, error) {
	if err := v.f.check("get", key); err != nil {
		return nil, err
	}
	return v.inner.Get(ctx, key)
}

func (v *flakyView) Put(ctx context.Context, key string, value []byte) error {
	if err := v.f.check("put", key); err != nil {
		return err
	}
	return v.inner.Put(ctx, key, value)
}

func (v *flakyView) Remove(ctx context.Context, key string) error {
	if err := v.f.check("remove", key); err != nil {
		return err
	}
	return v.inner.Remove(ctx, key)
}
