package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykarpov/billkeeper/internal/localstore"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/queue"
	"github.com/ykarpov/billkeeper/internal/utils"
	"github.com/ykarpov/billkeeper/models"
)

// memStore is an in-memory LocalStore for exercising the write paths
// without a SQLite file.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, found := s.data[key]
	return raw, found, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Invalidate(context.Context, string) error { return nil }
func (s *memStore) Close() error                             { return nil }

func newTestApp() *App {
	store := newMemStore()
	log := logger.Nop()
	return &App{
		store:  store,
		queue:  queue.New(store, log),
		ids:    utils.NewUUIDGenerator(),
		now:    func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
		logger: log,
	}
}

func TestRecordBill_WritesCollectionAndQueue(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	bill, err := app.RecordBill(ctx, "Electricity", "utilities", decimal.RequireFromString("42.50"), 15)
	require.NoError(t, err)
	assert.NotEmpty(t, bill.ID)
	assert.Equal(t, models.KindBill, bill.Kind)

	bills, err := app.Bills(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, "Electricity", bills[0].Name)

	pending, err := app.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestRecordBudget_SetsMonth(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	budget, err := app.RecordBudget(ctx, "Groceries", "food", decimal.RequireFromString("600"), "2026-03")
	require.NoError(t, err)
	require.NotNil(t, budget.Month)
	assert.Equal(t, "2026-03", *budget.Month)

	budgets, err := app.Budgets(ctx)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)

	bills, err := app.Bills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills, "budgets must not leak into the bill collection")
}

func TestUpdateEntity_ReplacesLocalCopy(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	bill, err := app.RecordBill(ctx, "Rent", "housing", decimal.RequireFromString("1200"), 1)
	require.NoError(t, err)

	bill.Amount = decimal.RequireFromString("1250")
	_, err = app.UpdateEntity(ctx, bill)
	require.NoError(t, err)

	bills, err := app.Bills(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Amount.Equal(decimal.RequireFromString("1250")))

	pending, err := app.queue.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pending, "create and update must both be queued")
}

func TestDeleteEntity_EnqueuesTombstone(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	bill, err := app.RecordBill(ctx, "Gym", "leisure", decimal.RequireFromString("30"), 5)
	require.NoError(t, err)

	require.NoError(t, app.DeleteEntity(ctx, bill.ID))

	bills, err := app.Bills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills)

	ops, err := app.queue.Drain(ctx)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, models.ActionDelete, ops[1].Action)
	assert.True(t, ops[1].Entity.Deleted, "delete must queue a tombstone")
}

func TestDeleteEntity_UnknownID(t *testing.T) {
	app := newTestApp()

	err := app.DeleteEntity(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrEntityNotFoundLocally)
}

var _ localstore.LocalStore = (*memStore)(nil)
