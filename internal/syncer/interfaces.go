// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package syncer implements the client-side sync orchestrator: the state
// machine that decides when to synchronize, drives the
// upload→download→merge sequence, and retries transient failures with
// exponential backoff.
package syncer

import (
	"context"

	"github.com/ykarpov/billkeeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/queue_mock.go -package=mock

// Queue is the mutation queue contract the orchestrator consumes. It only
// ever reads the queue and removes committed ranges; appends happen on the
// application's write paths (and on conflict re-enqueue).
type Queue interface {
	Enqueue(ctx context.Context, action models.MutationAction, entity models.Entity) (models.MutationOperation, error)
	Drain(ctx context.Context) ([]models.MutationOperation, error)
	Commit(ctx context.Context, upToID string) error
	Clear(ctx context.Context) error
	PendingCount(ctx context.Context) (int, error)
}
