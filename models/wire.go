// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wire DTOs exchanged between client and server. Every date-valued field
// crosses the wire as epoch milliseconds so that two devices with different
// locales and time zone databases serialize instants identically. Amounts
// travel as decimal strings.

// WireEntity is the transport form of [Entity].
type WireEntity struct {
	ID            string  `json:"id"`
	Kind          string  `json:"kind"`
	OwnerID       int64   `json:"owner_id"`
	SharedSpaceID *string `json:"shared_space_id,omitempty"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Amount        string  `json:"amount"`
	DueDay        *int    `json:"due_day,omitempty"`
	Month         *string `json:"month,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	UpdatedAt     int64   `json:"updated_at"`
	Deleted       bool    `json:"deleted"`

	// Version is the server-side row version. Informational for clients;
	// zero on upload.
	Version int64 `json:"version,omitempty"`
}

// WireMutation is the transport form of [MutationOperation].
type WireMutation struct {
	ID         string     `json:"id"`
	Action     string     `json:"action"`
	Entity     WireEntity `json:"entity"`
	EnqueuedAt int64      `json:"enqueued_at"`
}

// UploadRequest is the body of POST /api/sync/upload. The client chunks its
// mutation queue into requests of at most the configured batch size.
type UploadRequest struct {
	Mutations  []WireMutation `json:"mutations"`
	DeviceID   string         `json:"device_id"`
	DeviceType string         `json:"device_type"`
	AppVersion string         `json:"app_version"`
	Length     int            `json:"length"`
}

// UploadResponse reports how many mutations were applied and returns the
// server-side value of every record the server refused to overwrite.
type UploadResponse struct {
	Applied   int          `json:"applied"`
	Conflicts []WireEntity `json:"conflicts"`
	Length    int          `json:"length"`
}

// DownloadResponse carries all records modified since the client's
// checkpoint plus the server instant to persist as the next checkpoint.
type DownloadResponse struct {
	Entities   []WireEntity `json:"entities"`
	Checkpoint int64        `json:"checkpoint"`
	Length     int          `json:"length"`
}

// EntityToWire converts an [Entity] to its transport form.
func EntityToWire(e Entity) WireEntity {
	return WireEntity{
		ID:            e.ID,
		Kind:          string(e.Kind),
		OwnerID:       e.OwnerID,
		SharedSpaceID: e.SharedSpaceID,
		Name:          e.Name,
		Category:      e.Category,
		Amount:        e.Amount.String(),
		DueDay:        e.DueDay,
		Month:         e.Month,
		CreatedAt:     TimeToMillis(e.CreatedAt),
		UpdatedAt:     TimeToMillis(e.UpdatedAt),
		Deleted:       e.Deleted,
	}
}

// Entity converts the wire form back to the domain model. It fails only when
// the amount is not a valid decimal.
func (w WireEntity) Entity() (Entity, error) {
	amount := decimal.Zero
	if w.Amount != "" {
		parsed, err := decimal.NewFromString(w.Amount)
		if err != nil {
			return Entity{}, fmt.Errorf("parse wire amount %q for entity %s: %w", w.Amount, w.ID, err)
		}
		amount = parsed
	}

	return Entity{
		ID:            w.ID,
		Kind:          EntityKind(w.Kind),
		OwnerID:       w.OwnerID,
		SharedSpaceID: w.SharedSpaceID,
		Name:          w.Name,
		Category:      w.Category,
		Amount:        amount,
		DueDay:        w.DueDay,
		Month:         w.Month,
		CreatedAt:     MillisToTime(w.CreatedAt),
		UpdatedAt:     MillisToTime(w.UpdatedAt),
		Deleted:       w.Deleted,
	}, nil
}

// MutationToWire converts a [MutationOperation] to its transport form.
func MutationToWire(op MutationOperation) WireMutation {
	return WireMutation{
		ID:         op.ID,
		Action:     string(op.Action),
		Entity:     EntityToWire(op.Entity),
		EnqueuedAt: TimeToMillis(op.EnqueuedAt),
	}
}

// Mutation converts the wire form back to the domain model.
func (w WireMutation) Mutation() (MutationOperation, error) {
	entity, err := w.Entity.Entity()
	if err != nil {
		return MutationOperation{}, err
	}

	return MutationOperation{
		ID:         w.ID,
		Action:     MutationAction(w.Action),
		Entity:     entity,
		EnqueuedAt: MillisToTime(w.EnqueuedAt),
	}, nil
}

// EntitiesToWire converts a slice of entities preserving order.
func EntitiesToWire(entities []Entity) []WireEntity {
	out := make([]WireEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, EntityToWire(e))
	}
	return out
}

// TimeToMillis converts an instant to epoch milliseconds. The zero time maps
// to zero so an absent checkpoint stays absent on the wire.
func TimeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// MillisToTime is the inverse of [TimeToMillis]. Instants are always UTC.
func MillisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
