// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package merge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykarpov/billkeeper/models"
)

func entityAt(id string, updatedAt time.Time) models.Entity {
	return models.Entity{
		ID:        id,
		Kind:      models.KindBill,
		OwnerID:   42,
		Name:      "Rent " + id,
		Amount:    decimal.RequireFromString("1200.50"),
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
}

func idsOf(entities []models.Entity) []string {
	ids := make([]string, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.ID)
	}
	return ids
}

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ────────────────────────────────────────────────────────────────────────────

func TestMerge_AppendsUnknownRemoteEntities(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime)}
	delta := []models.Entity{entityAt("b", baseTime), entityAt("c", baseTime)}

	result := engine.Merge(local, delta)

	assert.Equal(t, []string{"a", "b", "c"}, idsOf(result.Merged))
	assert.Empty(t, result.Conflicts)
}

func TestMerge_NewerRemoteReplacesLocal(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime)}
	newer := entityAt("a", baseTime.Add(time.Minute))
	newer.Name = "Rent (renegotiated)"

	result := engine.Merge(local, []models.Entity{newer})

	require.Len(t, result.Merged, 1)
	assert.Equal(t, "Rent (renegotiated)", result.Merged[0].Name)
	assert.Empty(t, result.Conflicts)
}

func TestMerge_NewerLocalWinsAndRecordsConflict(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime.Add(time.Minute))}
	stale := entityAt("a", baseTime)
	stale.Name = "Rent (stale)"

	result := engine.Merge(local, []models.Entity{stale})

	require.Len(t, result.Merged, 1)
	assert.Equal(t, local[0].Name, result.Merged[0].Name)

	require.Len(t, result.Conflicts, 1)
	conflict := result.Conflicts[0]
	assert.Equal(t, models.KeptLocal, conflict.Resolution)
	assert.Equal(t, local[0].UpdatedAt, conflict.Local.UpdatedAt)
	assert.Equal(t, stale.UpdatedAt, conflict.Remote.UpdatedAt)
}

func TestMerge_EqualTimestampsFavorRemote(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime)}
	remote := entityAt("a", baseTime)
	remote.Name = "Rent (remote)"

	result := engine.Merge(local, []models.Entity{remote})

	require.Len(t, result.Merged, 1)
	assert.Equal(t, "Rent (remote)", result.Merged[0].Name)
	assert.Empty(t, result.Conflicts, "a tie is not a conflict")
}

func TestMerge_TombstoneRemovesRegardlessOfTimestamps(t *testing.T) {
	engine := NewEngine()

	// The local copy is newer than the tombstone; deletion still wins.
	local := []models.Entity{entityAt("a", baseTime.Add(time.Hour)), entityAt("b", baseTime)}
	tombstone := entityAt("a", baseTime).Tombstone(baseTime)

	result := engine.Merge(local, []models.Entity{tombstone})

	assert.Equal(t, []string{"b"}, idsOf(result.Merged))
	assert.Empty(t, result.Conflicts)
}

func TestMerge_TombstoneForUnknownIDIsIgnored(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime)}
	tombstone := entityAt("ghost", baseTime).Tombstone(baseTime)

	result := engine.Merge(local, []models.Entity{tombstone})

	assert.Equal(t, []string{"a"}, idsOf(result.Merged))
}

func TestMerge_PreservesLocalOrderAndAppendsInDeltaOrder(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{
		entityAt("a", baseTime),
		entityAt("b", baseTime),
		entityAt("c", baseTime),
	}
	delta := []models.Entity{
		entityAt("b", baseTime.Add(time.Minute)), // replaces in place
		entityAt("e", baseTime),
		entityAt("d", baseTime),
	}

	result := engine.Merge(local, delta)

	assert.Equal(t, []string{"a", "b", "c", "e", "d"}, idsOf(result.Merged))
}

func TestMerge_IsDeterministicAcrossDeltaOrderings(t *testing.T) {
	engine := NewEngine()

	local := []models.Entity{entityAt("a", baseTime), entityAt("b", baseTime)}

	newerA := entityAt("a", baseTime.Add(time.Minute))
	tombB := entityAt("b", baseTime).Tombstone(baseTime.Add(time.Minute))
	fresh := entityAt("c", baseTime)

	forward := engine.Merge(local, []models.Entity{newerA, tombB, fresh})
	reversed := engine.Merge(local, []models.Entity{fresh, tombB, newerA})

	assert.Equal(t, idsOf(forward.Merged), idsOf(reversed.Merged))
	assert.Equal(t, len(forward.Conflicts), len(reversed.Conflicts))
}

func TestMerge_EmptyInputs(t *testing.T) {
	engine := NewEngine()

	assert.Empty(t, engine.Merge(nil, nil).Merged)

	onlyLocal := engine.Merge([]models.Entity{entityAt("a", baseTime)}, nil)
	assert.Equal(t, []string{"a"}, idsOf(onlyLocal.Merged))

	onlyRemote := engine.Merge(nil, []models.Entity{entityAt("a", baseTime)})
	assert.Equal(t, []string{"a"}, idsOf(onlyRemote.Merged))
}
