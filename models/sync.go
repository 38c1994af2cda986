// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package models

import "time"

// SyncCheckpoint is the persisted lower bound for "what changed since the
// last sync". It is read before every download call and rewritten only
// after a fully successful pass.
type SyncCheckpoint struct {
	LastSyncTime time.Time `json:"last_sync_time"`
}

// IsZero reports whether the checkpoint has never been written, i.e. the
// device has never completed a sync pass.
func (c SyncCheckpoint) IsZero() bool {
	return c.LastSyncTime.IsZero()
}

// ConflictResolution names the side the merge engine kept when both devices
// edited the same record.
type ConflictResolution string

const (
	KeptLocal  ConflictResolution = "kept-local"
	KeptRemote ConflictResolution = "kept-remote"
)

// ConflictRecord describes one merge decision for observability. Records are
// produced transiently during a merge pass, logged, and discarded; they are
// never persisted or queued.
type ConflictRecord struct {
	Local      Entity             `json:"local"`
	Remote     Entity             `json:"remote"`
	Resolution ConflictResolution `json:"resolution"`
}

// SyncPhase is the orchestrator's externally visible state machine position.
type SyncPhase string

const (
	PhaseIdle        SyncPhase = "idle"
	PhaseSyncing     SyncPhase = "syncing"
	PhaseBackoffWait SyncPhase = "backoff-wait"
	PhaseFailed      SyncPhase = "failed"
)

// SyncState is a snapshot of the orchestrator for UI collaborators. It is
// mutated only by the orchestrator and handed out by value.
type SyncState struct {
	Phase          SyncPhase `json:"phase"`
	IsOnline       bool      `json:"is_online"`
	IsSyncing      bool      `json:"is_syncing"`
	LastSyncTime   time.Time `json:"last_sync_time"`
	PendingChanges int       `json:"pending_changes"`

	// Attempt is the retry ordinal while Phase is PhaseBackoffWait.
	Attempt int `json:"attempt,omitempty"`

	// Err is set only while Phase is PhaseFailed.
	Err error `json:"-"`
}
