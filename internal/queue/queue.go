// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package queue implements the persisted mutation queue: an ordered log of
// pending create/update/delete operations recorded while offline or between
// sync passes. Operations are never reordered or coalesced; they leave the
// queue only after the upload covering them has succeeded.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ykarpov/billkeeper/internal/localstore"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/models"
)

// MutationQueue owns the persisted operation log. Every mutating call
// writes through to the local store before returning, so a process restart
// never loses pending work. The orchestrator only reads (Drain) and removes
// ranges (Commit, Clear); it never rewrites individual operations.
type MutationQueue struct {
	store  localstore.LocalStore
	logger *logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

// New constructs a MutationQueue persisting through store.
func New(store localstore.LocalStore, log *logger.Logger) *MutationQueue {
	return &MutationQueue{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// Enqueue appends one operation for the given action and entity snapshot,
// assigns it a fresh operation id, and persists both the queue and the
// pending count before returning.
func (q *MutationQueue) Enqueue(ctx context.Context, action models.MutationAction, entity models.Entity) (models.MutationOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops, err := q.load(ctx)
	if err != nil {
		return models.MutationOperation{}, err
	}

	op := models.MutationOperation{
		ID:         newOperationID(),
		Action:     action,
		Entity:     entity,
		EnqueuedAt: q.now().UTC(),
	}
	ops = append(ops, op)

	if err = q.persist(ctx, ops); err != nil {
		return models.MutationOperation{}, err
	}

	q.logger.Debug().
		Str("op_id", op.ID).
		Str("action", string(action)).
		Str("entity_id", entity.ID).
		Int("pending", len(ops)).
		Msg("mutation enqueued")

	return op, nil
}

// Drain returns the full queue in enqueue order without removing anything.
func (q *MutationQueue) Drain(ctx context.Context) ([]models.MutationOperation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.load(ctx)
}

// Commit removes every operation up to and including the one with the given
// id and resets the pending count to the remaining length. Operations
// enqueued after the drained range therefore survive the commit. Unknown
// ids leave the queue untouched.
func (q *MutationQueue) Commit(ctx context.Context, upToID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	ops, err := q.load(ctx)
	if err != nil {
		return err
	}

	cut := -1
	for i, op := range ops {
		if op.ID == upToID {
			cut = i
			break
		}
	}
	if cut < 0 {
		return nil
	}

	remaining := append([]models.MutationOperation(nil), ops[cut+1:]...)
	if err = q.persist(ctx, remaining); err != nil {
		return err
	}

	q.logger.Debug().
		Str("up_to_id", upToID).
		Int("removed", cut+1).
		Int("remaining", len(remaining)).
		Msg("mutation queue committed")

	return nil
}

// Clear empties the queue and zeroes the pending count.
func (q *MutationQueue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.persist(ctx, nil)
}

// PendingCount returns the persisted pending-operation count.
func (q *MutationQueue) PendingCount(ctx context.Context) (int, error) {
	var count int
	if _, err := localstore.GetJSON(ctx, q.store, localstore.KeyPendingCount, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (q *MutationQueue) load(ctx context.Context) ([]models.MutationOperation, error) {
	var ops []models.MutationOperation
	if _, err := localstore.GetJSON(ctx, q.store, localstore.KeyQueue, &ops); err != nil {
		return nil, fmt.Errorf("load mutation queue: %w", err)
	}
	return ops, nil
}

func (q *MutationQueue) persist(ctx context.Context, ops []models.MutationOperation) error {
	if ops == nil {
		ops = []models.MutationOperation{}
	}

	if err := localstore.SetJSON(ctx, q.store, localstore.KeyQueue, ops); err != nil {
		return fmt.Errorf("persist mutation queue: %w", err)
	}
	if err := localstore.SetJSON(ctx, q.store, localstore.KeyPendingCount, len(ops)); err != nil {
		return fmt.Errorf("persist pending count: %w", err)
	}

	return nil
}

func newOperationID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
