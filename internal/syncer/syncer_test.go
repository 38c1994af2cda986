// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ykarpov/billkeeper/internal/adapter"
	"github.com/ykarpov/billkeeper/internal/localstore"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/mock"
	"github.com/ykarpov/billkeeper/models"
)

// ────────────────────────────────────────────────────────────────────────────
// test fixtures
// ────────────────────────────────────────────────────────────────────────────

// memStore is a map-backed LocalStore so tests can seed and inspect the
// persisted records without a real SQLite file.
type memStore struct {
	mu          sync.Mutex
	data        map[string][]byte
	invalidated []string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, found := s.data[key]
	return value, found, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, key)
	return nil
}

func (s *memStore) Close() error { return nil }

func seedJSON(t *testing.T, store *memStore, key string, value any) {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), key, raw))
}

func readJSON[T any](t *testing.T, store *memStore, key string) T {
	t.Helper()
	var out T
	raw, found, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, found)
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// sleepRecorder replaces the real backoff sleep and records every requested
// delay.
type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func testOp(id string, entityID string) models.MutationOperation {
	return models.MutationOperation{
		ID:     id,
		Action: models.ActionUpdate,
		Entity: models.Entity{
			ID:        entityID,
			Kind:      models.KindBill,
			OwnerID:   42,
			Name:      "Rent",
			Amount:    decimal.RequireFromString("1200.50"),
			CreatedAt: time.Unix(1_700_000_000, 0).UTC(),
			UpdatedAt: time.Unix(1_700_000_100, 0).UTC(),
		},
		EnqueuedAt: time.Unix(1_700_000_101, 0).UTC(),
	}
}

func newTestOrchestrator(t *testing.T, cfg Config) (*Orchestrator, *mock.MockQueue, *mock.MockServerAdapter, *memStore, *sleepRecorder) {
	t.Helper()

	ctrl := gomock.NewController(t)
	queue := mock.NewMockQueue(ctrl)
	serverAdapter := mock.NewMockServerAdapter(ctrl)
	store := newMemStore()

	o := New(queue, store, serverAdapter, cfg, logger.Nop())

	recorder := &sleepRecorder{}
	o.sleep = recorder.sleep
	o.now = func() time.Time { return time.Unix(1_700_000_200, 0).UTC() }

	return o, queue, serverAdapter, store, recorder
}

// ────────────────────────────────────────────────────────────────────────────
// upload batching
// ────────────────────────────────────────────────────────────────────────────

func TestSync_UploadsQueueInBatches(t *testing.T) {
	o, queue, serverAdapter, store, _ := newTestOrchestrator(t, Config{BatchSize: 50})
	ctx := context.Background()

	ops := make([]models.MutationOperation, 0, 120)
	for i := 0; i < 120; i++ {
		ops = append(ops, testOp(string(rune('a'+i%26))+"-op", "entity"))
	}
	ops[len(ops)-1].ID = "last-op"

	var batchSizes []int
	queue.EXPECT().Drain(ctx).Return(ops, nil)
	serverAdapter.EXPECT().
		Upload(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, batch []models.MutationOperation) (models.UploadResponse, error) {
			batchSizes = append(batchSizes, len(batch))
			return models.UploadResponse{Applied: len(batch)}, nil
		}).
		Times(3)
	serverAdapter.EXPECT().Download(ctx, gomock.Any()).Return(models.DownloadResponse{}, nil)
	queue.EXPECT().Commit(ctx, "last-op").Return(nil)
	queue.EXPECT().PendingCount(ctx).Return(0, nil)

	require.NoError(t, o.Sync(ctx))

	assert.Equal(t, []int{50, 50, 20}, batchSizes)
	assert.Contains(t, store.invalidated, localstore.KeyEntities)

	state := o.State()
	assert.Equal(t, models.PhaseIdle, state.Phase)
	assert.False(t, state.IsSyncing)
	assert.Zero(t, state.PendingChanges)
}

// ────────────────────────────────────────────────────────────────────────────
// checkpoint handling
// ────────────────────────────────────────────────────────────────────────────

func TestSync_FirstSyncRequestsFullCollection(t *testing.T) {
	o, queue, serverAdapter, store, _ := newTestOrchestrator(t, Config{})
	ctx := context.Background()

	remote := models.EntityToWire(testOp("op-1", "bill-1").Entity)
	checkpointMillis := int64(1_700_000_150_000)

	queue.EXPECT().Drain(ctx).Return(nil, nil)
	serverAdapter.EXPECT().
		Download(ctx, gomock.Nil()).
		Return(models.DownloadResponse{Entities: []models.WireEntity{remote}, Checkpoint: checkpointMillis, Length: 1}, nil)
	queue.EXPECT().PendingCount(ctx).Return(0, nil)

	require.NoError(t, o.Sync(ctx))

	entities := readJSON[[]models.Entity](t, store, localstore.KeyEntities)
	require.Len(t, entities, 1)
	assert.Equal(t, "bill-1", entities[0].ID)

	checkpoint := readJSON[models.SyncCheckpoint](t, store, localstore.KeyCheckpoint)
	assert.Equal(t, models.MillisToTime(checkpointMillis), checkpoint.LastSyncTime)
	assert.Equal(t, checkpoint.LastSyncTime, o.State().LastSyncTime)
}

func TestSync_SecondSyncSendsStoredCheckpoint(t *testing.T) {
	o, queue, serverAdapter, store, _ := newTestOrchestrator(t, Config{})
	ctx := context.Background()

	lastSync := time.Unix(1_700_000_050, 0).UTC()
	seedJSON(t, store, localstore.KeyCheckpoint, models.SyncCheckpoint{LastSyncTime: lastSync})

	queue.EXPECT().Drain(ctx).Return(nil, nil)
	serverAdapter.EXPECT().
		Download(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, since *time.Time) (models.DownloadResponse, error) {
			require.NotNil(t, since)
			assert.True(t, since.Equal(lastSync))
			return models.DownloadResponse{Checkpoint: models.TimeToMillis(lastSync.Add(time.Minute))}, nil
		})
	queue.EXPECT().PendingCount(ctx).Return(0, nil)

	require.NoError(t, o.Sync(ctx))
}

// ────────────────────────────────────────────────────────────────────────────
// retry and backoff
// ────────────────────────────────────────────────────────────────────────────

func TestSync_RetriesTransientFailureWithExponentialBackoff(t *testing.T) {
	o, queue, serverAdapter, _, recorder := newTestOrchestrator(t, Config{MaxAttempts: 2, BaseDelay: time.Second})
	ctx := context.Background()

	ops := []models.MutationOperation{testOp("op-1", "bill-1")}

	// Each attempt replays the whole pass from the queue drain.
	queue.EXPECT().Drain(ctx).Return(ops, nil).Times(3)
	serverAdapter.EXPECT().
		Upload(ctx, gomock.Any()).
		Return(models.UploadResponse{}, adapter.ErrServerUnavailable).
		Times(3)

	err := o.Sync(ctx)
	require.ErrorIs(t, err, adapter.ErrServerUnavailable)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, recorder.delays)

	state := o.State()
	assert.Equal(t, models.PhaseFailed, state.Phase)
	assert.False(t, state.IsSyncing)
	assert.ErrorIs(t, state.Err, adapter.ErrServerUnavailable)
}

func TestSync_RecoversAfterTransientFailures(t *testing.T) {
	o, queue, serverAdapter, store, recorder := newTestOrchestrator(t, Config{MaxAttempts: 2, BaseDelay: time.Second})
	ctx := context.Background()

	ops := []models.MutationOperation{testOp("op-1", "bill-1")}
	checkpointMillis := int64(1_700_000_150_000)

	queue.EXPECT().Drain(ctx).Return(ops, nil).Times(3)
	gomock.InOrder(
		serverAdapter.EXPECT().
			Upload(ctx, gomock.Any()).
			Return(models.UploadResponse{}, adapter.ErrServerUnavailable).
			Times(2),
		serverAdapter.EXPECT().
			Upload(ctx, gomock.Any()).
			Return(models.UploadResponse{Applied: 1}, nil),
	)
	queue.EXPECT().Commit(ctx, "op-1").Return(nil)
	serverAdapter.EXPECT().
		Download(ctx, gomock.Nil()).
		Return(models.DownloadResponse{Checkpoint: checkpointMillis}, nil)
	queue.EXPECT().PendingCount(ctx).Return(0, nil)

	require.NoError(t, o.Sync(ctx))

	// Both failed attempts backed off, and the success wiped the slate.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, recorder.delays)

	state := o.State()
	assert.Equal(t, models.PhaseIdle, state.Phase)
	assert.False(t, state.IsSyncing)
	assert.NoError(t, state.Err)

	checkpoint := readJSON[models.SyncCheckpoint](t, store, localstore.KeyCheckpoint)
	assert.Equal(t, models.MillisToTime(checkpointMillis), checkpoint.LastSyncTime)
	assert.Equal(t, checkpoint.LastSyncTime, state.LastSyncTime)
}

func TestSync_NonRetryableFailureStopsImmediately(t *testing.T) {
	o, queue, serverAdapter, _, recorder := newTestOrchestrator(t, Config{MaxAttempts: 3})
	ctx := context.Background()

	queue.EXPECT().Drain(ctx).Return([]models.MutationOperation{testOp("op-1", "bill-1")}, nil)
	serverAdapter.EXPECT().
		Upload(ctx, gomock.Any()).
		Return(models.UploadResponse{}, adapter.ErrNotAuthenticated)

	err := o.Sync(ctx)
	require.ErrorIs(t, err, adapter.ErrNotAuthenticated)

	assert.Empty(t, recorder.delays)
	assert.Equal(t, models.PhaseFailed, o.State().Phase)
}

// ────────────────────────────────────────────────────────────────────────────
// offline and concurrency guards
// ────────────────────────────────────────────────────────────────────────────

func TestSync_OfflineSkipsNetworkEntirely(t *testing.T) {
	o, _, _, _, _ := newTestOrchestrator(t, Config{})
	ctx := context.Background()

	o.SetOnline(ctx, false)

	// No expectations registered on queue or adapter: an offline pass must
	// not touch either.
	require.NoError(t, o.Sync(ctx))

	state := o.State()
	assert.Equal(t, models.PhaseIdle, state.Phase)
	assert.False(t, state.IsOnline)
}

func TestSync_SecondTriggerWhileBusyIsDropped(t *testing.T) {
	o, _, _, _, _ := newTestOrchestrator(t, Config{})

	o.mu.Lock()
	o.busy = true
	o.mu.Unlock()

	// No expectations registered: a dropped trigger touches nothing.
	require.NoError(t, o.Sync(context.Background()))
}

// ────────────────────────────────────────────────────────────────────────────
// conflict handling
// ────────────────────────────────────────────────────────────────────────────

func TestSync_LocalConflictWinnerIsReenqueued(t *testing.T) {
	o, queue, serverAdapter, store, _ := newTestOrchestrator(t, Config{})
	ctx := context.Background()

	local := testOp("op-1", "bill-1").Entity
	local.UpdatedAt = time.Unix(1_700_000_180, 0).UTC()
	seedJSON(t, store, localstore.KeyEntities, []models.Entity{local})
	seedJSON(t, store, localstore.KeyCheckpoint, models.SyncCheckpoint{LastSyncTime: time.Unix(1_700_000_000, 0).UTC()})

	// The server sends an older version of the same record.
	remote := local
	remote.UpdatedAt = time.Unix(1_700_000_120, 0).UTC()
	remote.Name = "Rent (stale)"

	ops := []models.MutationOperation{testOp("op-1", "bill-1")}

	queue.EXPECT().Drain(ctx).Return(ops, nil)
	serverAdapter.EXPECT().Upload(ctx, gomock.Any()).Return(models.UploadResponse{Applied: 1}, nil)
	serverAdapter.EXPECT().
		Download(ctx, gomock.Any()).
		Return(models.DownloadResponse{Entities: []models.WireEntity{models.EntityToWire(remote)}}, nil)

	// The queue commit must land before the winner is re-enqueued, otherwise
	// the commit would wipe the fresh operation.
	commit := queue.EXPECT().Commit(ctx, "op-1").Return(nil)
	enqueue := queue.EXPECT().
		Enqueue(ctx, models.ActionUpdate, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.MutationAction, entity models.Entity) (models.MutationOperation, error) {
			assert.Equal(t, "bill-1", entity.ID)
			assert.Equal(t, local.UpdatedAt, entity.UpdatedAt)
			assert.Equal(t, "Rent", entity.Name)
			return models.MutationOperation{ID: "op-2", Action: models.ActionUpdate, Entity: entity}, nil
		})
	gomock.InOrder(commit, enqueue)
	queue.EXPECT().PendingCount(ctx).Return(1, nil)

	require.NoError(t, o.Sync(ctx))

	// The stale remote value never reaches the persisted collection.
	entities := readJSON[[]models.Entity](t, store, localstore.KeyEntities)
	require.Len(t, entities, 1)
	assert.Equal(t, "Rent", entities[0].Name)
	assert.Equal(t, 1, o.State().PendingChanges)
}

// ────────────────────────────────────────────────────────────────────────────
// state notifications
// ────────────────────────────────────────────────────────────────────────────

func TestSync_SubscribersSeeSyncingThenIdle(t *testing.T) {
	o, queue, serverAdapter, _, _ := newTestOrchestrator(t, Config{})
	ctx := context.Background()

	var phases []models.SyncPhase
	o.Subscribe(func(s models.SyncState) { phases = append(phases, s.Phase) })

	queue.EXPECT().Drain(ctx).Return(nil, nil)
	serverAdapter.EXPECT().Download(ctx, gomock.Any()).Return(models.DownloadResponse{}, nil)
	queue.EXPECT().PendingCount(ctx).Return(0, nil)

	require.NoError(t, o.Sync(ctx))

	require.NotEmpty(t, phases)
	assert.Equal(t, models.PhaseSyncing, phases[0])
	assert.Equal(t, models.PhaseIdle, phases[len(phases)-1])
}
