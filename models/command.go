// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package models

import "time"

// SyncCommand is the server-side service input: one logical sync call
// carrying the client's pending mutations and/or its download checkpoint.
// The service executes both halves inside a single database transaction.
type SyncCommand struct {
	UserID     int64
	DeviceID   string
	DeviceType string
	AppVersion string

	// Mutations to apply. May be empty for a pure download call.
	Mutations []MutationOperation

	// Since bounds the delta query. Nil requests the full collection.
	Since *time.Time

	// WithDelta controls whether the delta half of the call runs. Upload
	// requests leave it false so the endpoint stays cheap.
	WithDelta bool
}

// SyncStats summarizes one sync call for the audit log.
type SyncStats struct {
	Uploaded   int `json:"uploaded"`
	Downloaded int `json:"downloaded"`
	Conflicted int `json:"conflicted"`
}

// SyncResult is the server-side service output.
type SyncResult struct {
	// Applied is the number of mutations whose write won against the
	// stored row.
	Applied int

	// Conflicts holds the stored value of every row the server kept
	// because it was newer than the incoming mutation.
	Conflicts []Entity

	// Delta holds all live rows visible to the user modified after Since.
	Delta []Entity

	// Checkpoint is the server instant the client should persist as its
	// next sinceCheckpoint.
	Checkpoint time.Time

	Stats SyncStats
}
