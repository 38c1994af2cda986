// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ykarpov/billkeeper/internal/adapter"
	"github.com/ykarpov/billkeeper/internal/localstore"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/merge"
	"github.com/ykarpov/billkeeper/models"
)

// Config holds the orchestrator tunables. Zero values select the protocol
// defaults (50-item batches, 3 retries, 1s base delay).
type Config struct {
	BatchSize          int
	MaxAttempts        int
	BaseDelay          time.Duration
	StalenessThreshold time.Duration
}

// Orchestrator owns the sync state machine. At most one pass is in flight
// at any time: the busy slot is taken under a mutex, so simultaneous
// triggers cannot both start a pass — late ones are dropped, not queued.
// The persisted collection and checkpoint are mutated only here; all other
// collaborators read them through the (eventually consistent) cached store.
type Orchestrator struct {
	queue   Queue
	store   localstore.LocalStore
	adapter adapter.ServerAdapter
	engine  *merge.Engine
	cfg     Config
	logger  *logger.Logger

	// sleep and now are injected so the backoff schedule is testable
	// without real timers.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu          sync.Mutex
	busy        bool
	state       models.SyncState
	subscribers []func(models.SyncState)
}

// New constructs an Orchestrator in the Idle state. The device is assumed
// online until a connectivity signal says otherwise.
func New(q Queue, store localstore.LocalStore, serverAdapter adapter.ServerAdapter, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1000 * time.Millisecond
	}
	if cfg.StalenessThreshold <= 0 {
		cfg.StalenessThreshold = 30 * time.Minute
	}

	return &Orchestrator{
		queue:   q,
		store:   store,
		adapter: serverAdapter,
		engine:  merge.NewEngine(),
		cfg:     cfg,
		logger:  log,
		sleep:   sleepContext,
		now:     time.Now,
		state: models.SyncState{
			Phase:    models.PhaseIdle,
			IsOnline: true,
		},
	}
}

// State returns a snapshot of the orchestrator's externally visible state.
func (o *Orchestrator) State() models.SyncState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe registers fn to be called with a state snapshot after every
// state change. Callbacks run on the syncing goroutine and must be quick.
func (o *Orchestrator) Subscribe(fn func(models.SyncState)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

// Sync is the explicit manual trigger. It runs a full pass synchronously
// and returns its outcome. A concurrent pass already in flight makes the
// call a no-op.
func (o *Orchestrator) Sync(ctx context.Context) error {
	return o.run(ctx, "manual")
}

// SetOnline records a connectivity change. A transition to online with
// pending changes triggers a background pass.
func (o *Orchestrator) SetOnline(ctx context.Context, online bool) {
	o.mu.Lock()
	wasOnline := o.state.IsOnline
	o.state.IsOnline = online
	o.mu.Unlock()
	o.notify()

	if online && !wasOnline && o.pendingCount(ctx) > 0 {
		go func() { _ = o.run(ctx, "connectivity") }()
	}
}

// NotifyForeground records an app-foreground event and triggers a pass when
// changes are pending.
func (o *Orchestrator) NotifyForeground(ctx context.Context) {
	if o.pendingCount(ctx) > 0 {
		go func() { _ = o.run(ctx, "foreground") }()
	}
}

// maybePeriodicSync is the periodic-timer trigger: it fires a pass when
// changes are pending or the checkpoint has gone stale.
func (o *Orchestrator) maybePeriodicSync(ctx context.Context) {
	if o.pendingCount(ctx) > 0 || o.checkpointStale(ctx) {
		_ = o.run(ctx, "periodic")
	}
}

// run executes one sync pass with retries. It owns the single in-flight
// slot: if another pass holds it the trigger is dropped.
func (o *Orchestrator) run(ctx context.Context, trigger string) error {
	if !o.acquire() {
		o.logger.Debug().Str("trigger", trigger).Msg("sync already in flight, trigger dropped")
		return nil
	}
	defer o.release()

	// Offline short-circuit: no network call, no error, pending changes
	// untouched.
	if !o.State().IsOnline {
		o.logger.Debug().Str("trigger", trigger).Msg("device offline, sync skipped")
		o.transition(func(s *models.SyncState) {
			s.Phase = models.PhaseIdle
			s.IsSyncing = false
		})
		return nil
	}

	o.logger.Info().Str("trigger", trigger).Msg("sync pass started")

	for attempt := 0; ; attempt++ {
		o.transition(func(s *models.SyncState) {
			s.Phase = models.PhaseSyncing
			s.IsSyncing = true
			s.Attempt = attempt
			s.Err = nil
		})

		err := o.pass(ctx)
		if err == nil {
			return nil
		}

		if !adapter.Retryable(err) || attempt >= o.cfg.MaxAttempts {
			o.logger.Error().Err(err).Int("attempt", attempt).Msg("sync pass failed")
			o.transition(func(s *models.SyncState) {
				s.Phase = models.PhaseFailed
				s.IsSyncing = false
				s.Err = err
			})
			return err
		}

		delay := o.cfg.BaseDelay << attempt
		o.logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("sync attempt failed, backing off")
		o.transition(func(s *models.SyncState) {
			s.Phase = models.PhaseBackoffWait
			s.Attempt = attempt + 1
		})

		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			o.transition(func(s *models.SyncState) {
				s.Phase = models.PhaseFailed
				s.IsSyncing = false
				s.Err = sleepErr
			})
			return sleepErr
		}
	}
}

// pass performs the steps of a single attempt in order: upload the queue in
// batches, download the delta, merge, persist, commit the queue, advance
// the checkpoint. Any failure aborts the remaining steps leaving queue and
// checkpoint untouched, so a retry replays from scratch.
func (o *Orchestrator) pass(ctx context.Context) error {
	ops, err := o.queue.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain mutation queue: %w", err)
	}

	for start := 0; start < len(ops); start += o.cfg.BatchSize {
		end := start + o.cfg.BatchSize
		if end > len(ops) {
			end = len(ops)
		}

		resp, uploadErr := o.adapter.Upload(ctx, ops[start:end])
		if uploadErr != nil {
			return fmt.Errorf("upload batch [%d:%d]: %w", start, end, uploadErr)
		}

		if len(resp.Conflicts) > 0 {
			o.logger.Info().
				Int("conflicts", len(resp.Conflicts)).
				Int("applied", resp.Applied).
				Msg("server kept newer versions for some uploads")
		}
	}

	var checkpoint models.SyncCheckpoint
	if _, err = localstore.GetJSON(ctx, o.store, localstore.KeyCheckpoint, &checkpoint); err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	var since *time.Time
	if !checkpoint.IsZero() {
		t := checkpoint.LastSyncTime
		since = &t
	}

	download, err := o.adapter.Download(ctx, since)
	if err != nil {
		return fmt.Errorf("download delta: %w", err)
	}

	delta := make([]models.Entity, 0, len(download.Entities))
	for _, wire := range download.Entities {
		entity, convErr := wire.Entity()
		if convErr != nil {
			return fmt.Errorf("%w: %w", adapter.ErrBadRequest, convErr)
		}
		delta = append(delta, entity)
	}

	var local []models.Entity
	if _, err = localstore.GetJSON(ctx, o.store, localstore.KeyEntities, &local); err != nil {
		return fmt.Errorf("load local collection: %w", err)
	}

	result := o.engine.Merge(local, delta)
	for _, conflict := range result.Conflicts {
		o.logger.Info().
			Str("entity_id", conflict.Local.ID).
			Time("local_updated_at", conflict.Local.UpdatedAt).
			Time("remote_updated_at", conflict.Remote.UpdatedAt).
			Str("resolution", string(conflict.Resolution)).
			Msg("merge conflict resolved")
	}

	if err = localstore.SetJSON(ctx, o.store, localstore.KeyEntities, result.Merged); err != nil {
		return fmt.Errorf("persist merged collection: %w", err)
	}
	if err = o.store.Invalidate(ctx, localstore.KeyEntities); err != nil {
		return fmt.Errorf("invalidate collection cache: %w", err)
	}

	if len(ops) > 0 {
		if err = o.queue.Commit(ctx, ops[len(ops)-1].ID); err != nil {
			return fmt.Errorf("commit mutation queue: %w", err)
		}
	}

	// A local value that won a conflict is not part of the server delta, so
	// nothing would ever push it back. Re-enqueue it as an update so the
	// next pass propagates the winner.
	for _, conflict := range result.Conflicts {
		if _, err = o.queue.Enqueue(ctx, models.ActionUpdate, conflict.Local); err != nil {
			return fmt.Errorf("re-enqueue conflict winner %s: %w", conflict.Local.ID, err)
		}
	}

	checkpointTime := models.MillisToTime(download.Checkpoint)
	if checkpointTime.IsZero() {
		checkpointTime = o.now().UTC()
	}
	if err = localstore.SetJSON(ctx, o.store, localstore.KeyCheckpoint, models.SyncCheckpoint{LastSyncTime: checkpointTime}); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}

	pending, err := o.queue.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("read pending count: %w", err)
	}

	o.transition(func(s *models.SyncState) {
		s.Phase = models.PhaseIdle
		s.IsSyncing = false
		s.LastSyncTime = checkpointTime
		s.PendingChanges = pending
		s.Attempt = 0
		s.Err = nil
	})

	o.logger.Info().
		Int("uploaded", len(ops)).
		Int("downloaded", len(delta)).
		Int("conflicts", len(result.Conflicts)).
		Time("checkpoint", checkpointTime).
		Msg("sync pass finished")

	return nil
}

// acquire takes the single in-flight slot. It returns false when a pass
// already holds it.
func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.busy {
		return false
	}
	o.busy = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

func (o *Orchestrator) transition(mutate func(*models.SyncState)) {
	o.mu.Lock()
	mutate(&o.state)
	o.mu.Unlock()
	o.notify()
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	snapshot := o.state
	subscribers := make([]func(models.SyncState), len(o.subscribers))
	copy(subscribers, o.subscribers)
	o.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func (o *Orchestrator) pendingCount(ctx context.Context) int {
	pending, err := o.queue.PendingCount(ctx)
	if err != nil {
		o.logger.Err(err).Msg("read pending count")
		return 0
	}

	o.mu.Lock()
	o.state.PendingChanges = pending
	o.mu.Unlock()

	return pending
}

func (o *Orchestrator) checkpointStale(ctx context.Context) bool {
	var checkpoint models.SyncCheckpoint
	found, err := localstore.GetJSON(ctx, o.store, localstore.KeyCheckpoint, &checkpoint)
	if err != nil {
		o.logger.Err(err).Msg("read checkpoint")
		return false
	}
	if !found || checkpoint.IsZero() {
		return true
	}

	return o.now().Sub(checkpoint.LastSyncTime) > o.cfg.StalenessThreshold
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
