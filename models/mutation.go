// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package models

import "time"

// MutationAction enumerates the three operations a device can record
// against a syncable entity while offline or between sync passes.
type MutationAction string

const (
	ActionCreate MutationAction = "create"
	ActionUpdate MutationAction = "update"
	ActionDelete MutationAction = "delete"
)

// MutationOperation is one pending local write awaiting upload. Operations
// are immutable once enqueued: the queue appends them in write order and the
// orchestrator only ever reads and removes ranges. Duplicate updates to one
// entity stay as separate operations; the server applies them in order, so
// the last write for a given entity id within a batch wins.
type MutationOperation struct {
	// ID identifies the operation itself, not the entity it touches.
	ID string `json:"id"`

	// Action is the kind of write recorded.
	Action MutationAction `json:"action"`

	// Entity is the state of the record at the moment of the write. For a
	// delete it is a tombstone carrying only identity fields.
	Entity Entity `json:"entity"`

	// EnqueuedAt is the instant the operation was appended to the queue.
	EnqueuedAt time.Time `json:"enqueued_at"`
}
