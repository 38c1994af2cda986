// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package merge implements the pure reconciliation step of a sync pass:
// folding a remote delta into the locally persisted collection using
// last-write-wins timestamp comparison and tombstone semantics.
package merge

import (
	"github.com/ykarpov/billkeeper/models"
)

// Result is the outcome of one merge pass. Conflicts are observability
// records only; callers log and discard them.
type Result struct {
	Merged    []models.Entity
	Conflicts []models.ConflictRecord
}

// Engine is the concrete merge implementation. It performs a purely
// in-memory fold of the remote delta into the local collection; no storage
// layer or logger is required because the operation is stateless and
// produces no side effects.
type Engine struct{}

// NewEngine constructs an Engine ready for use.
func NewEngine() *Engine {
	return &Engine{}
}

// Merge reconciles the local collection with a remote delta. For each
// remote item, exactly one of the following applies:
//
//   - remote is a tombstone: any local entity with the same id is removed
//     from the result regardless of timestamps; no conflict is recorded.
//   - no local entity shares the id: remote is appended.
//   - both sides hold the id: the greater UpdatedAt wins. Equal timestamps
//     favor remote so that devices with skewed clocks converge on the same
//     value instead of oscillating. A local win is the only case that
//     produces a ConflictRecord.
//
// The decision for an id depends only on (local.UpdatedAt, remote.UpdatedAt,
// remote.Deleted), never on slice order. Local entities untouched by the
// delta keep their relative order; appended remote entities follow in delta
// order.
func (e *Engine) Merge(local, remoteDelta []models.Entity) Result {
	// Index local entities by id for O(1) pairing with delta items.
	localIndex := make(map[string]int, len(local))
	for i, entity := range local {
		localIndex[entity.ID] = i
	}

	// replaced maps a local position to its winning remote value;
	// removed marks local positions deleted by a tombstone.
	replaced := make(map[int]models.Entity)
	removed := make(map[int]struct{})

	var appended []models.Entity
	var conflicts []models.ConflictRecord

	for _, remote := range remoteDelta {
		idx, exists := localIndex[remote.ID]

		if remote.Deleted {
			if exists {
				removed[idx] = struct{}{}
				delete(replaced, idx)
			}
			// Tombstone for an unknown id: nothing to remove, nothing
			// to record.
			continue
		}

		if !exists {
			appended = append(appended, remote)
			continue
		}

		localEntity := local[idx]
		if current, ok := replaced[idx]; ok {
			localEntity = current
		}

		if remote.UpdatedAt.Before(localEntity.UpdatedAt) {
			conflicts = append(conflicts, models.ConflictRecord{
				Local:      localEntity,
				Remote:     remote,
				Resolution: models.KeptLocal,
			})
			continue
		}

		// Remote is newer or equally new: remote wins.
		replaced[idx] = remote
		delete(removed, idx)
	}

	merged := make([]models.Entity, 0, len(local)+len(appended))
	for i, entity := range local {
		if _, gone := removed[i]; gone {
			continue
		}
		if winner, ok := replaced[i]; ok {
			merged = append(merged, winner)
			continue
		}
		merged = append(merged, entity)
	}
	merged = append(merged, appended...)

	return Result{Merged: merged, Conflicts: conflicts}
}
