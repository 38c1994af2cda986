// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind identifies the syncable collection an entity belongs to.
type EntityKind string

const (
	KindBill   EntityKind = "bill"
	KindBudget EntityKind = "budget"
)

// Entity is the synchronization envelope shared by every record the engine
// moves between devices (bills and budgets). Domain fields are only
// meaningful while Deleted is false; a tombstoned entity keeps its identity
// fields and nothing else.
//
// Invariants: ID is immutable once assigned (client- or server-generated),
// and UpdatedAt is never earlier than CreatedAt.
type Entity struct {
	// ID is the globally unique identifier of the record. It is generated
	// on the device that creates the record and never changes afterwards.
	ID string `json:"id"`

	// Kind selects the collection (bill or budget) the record lives in.
	Kind EntityKind `json:"kind"`

	// OwnerID is the user who created the record.
	OwnerID int64 `json:"owner_id"`

	// SharedSpaceID, when set, makes the record visible to every member of
	// the named family space. Nil means the record is private to its owner.
	SharedSpaceID *string `json:"shared_space_id,omitempty"`

	// Name is the human-readable label ("Rent", "Groceries June").
	Name string `json:"name"`

	// Category groups records for reporting ("Food", "Utilities").
	Category string `json:"category"`

	// Amount is the monetary value of a bill, or the spending limit of a
	// budget. Stored as an arbitrary-precision decimal to avoid float drift.
	Amount decimal.Decimal `json:"amount"`

	// DueDay is the day of month a bill is due. Unused for budgets.
	DueDay *int `json:"due_day,omitempty"`

	// Month is the budget period in "2006-01" form. Unused for bills.
	Month *string `json:"month,omitempty"`

	// CreatedAt is the creation instant of the record.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the instant of the last modification. It drives all
	// last-write-wins conflict decisions.
	UpdatedAt time.Time `json:"updated_at"`

	// Deleted marks the record as a tombstone. Tombstones propagate the
	// deletion to other devices instead of physically dropping history.
	Deleted bool `json:"deleted"`
}

// Tombstone returns a copy of the entity stripped down to its identity
// fields with Deleted set and UpdatedAt stamped at the given instant.
func (e Entity) Tombstone(at time.Time) Entity {
	return Entity{
		ID:            e.ID,
		Kind:          e.Kind,
		OwnerID:       e.OwnerID,
		SharedSpaceID: e.SharedSpaceID,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     at,
		Deleted:       true,
	}
}

// TableName returns the name of the database table backing Entity
// on the server side.
func (e *Entity) TableName() string {
	return "entities"
}
