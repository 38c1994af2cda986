// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/models"
)

// syncRepository is the PostgreSQL-backed implementation of
// [SyncRepository]. One Sync call maps to exactly one transaction: the
// mutation apply loop, the delta read, the audit row, and the
// last_sync_at update all commit or roll back together.
type syncRepository struct {
	*DB
	spaces SpaceRepository
	logger *logger.Logger
}

// NewSyncRepository constructs a [SyncRepository] backed by the provided
// database connection and logger. Shared-space membership checks go
// through a [SpaceRepository] on the same connection.
func NewSyncRepository(db *DB, log *logger.Logger) SyncRepository {
	return &syncRepository{
		DB:     db,
		spaces: NewSpaceRepository(db, log),
		logger: log,
	}
}

// Sync implements [SyncRepository].
//
// For each incoming mutation: an unknown entity id is inserted with
// version 1; a known id is overwritten only when the mutation's UpdatedAt
// is strictly newer than the stored last_modified (version incremented).
// When the stored row is newer the row is left unchanged and its current
// value is collected into the conflict list for the caller's visibility.
// An equal timestamp is a replay of an already-applied write: counted as
// applied, no row touched. After the apply loop the delta query collects
// every row visible to the user modified after cmd.Since, tombstones
// included so deletes reach other devices.
//
// The returned checkpoint is the transaction's now() so that a client
// persisting it can never miss rows committed before this call.
func (r *syncRepository) Sync(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Int64("user_id", cmd.UserID).Msg("failed to begin sync transaction")
		return models.SyncResult{}, r.wrap(ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result := models.SyncResult{}

	for _, op := range cmd.Mutations {
		applied, conflict, applyErr := r.applyMutation(ctx, tx, cmd.UserID, op)
		if applyErr != nil {
			log.Err(applyErr).
				Int64("user_id", cmd.UserID).
				Str("op_id", op.ID).
				Str("entity_id", op.Entity.ID).
				Msg("failed to apply mutation")
			return models.SyncResult{}, applyErr
		}
		if applied {
			result.Applied++
		}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
		}
	}

	if cmd.WithDelta {
		delta, deltaErr := r.readDelta(ctx, tx, cmd.UserID, cmd.Since)
		if deltaErr != nil {
			log.Err(deltaErr).Int64("user_id", cmd.UserID).Msg("failed to read delta")
			return models.SyncResult{}, deltaErr
		}
		result.Delta = delta
	}

	var checkpoint time.Time
	if err = tx.QueryRowContext(ctx, selectTransactionNow).Scan(&checkpoint); err != nil {
		return models.SyncResult{}, r.wrap(ErrExecutingQuery, err)
	}
	result.Checkpoint = checkpoint.UTC()

	result.Stats = models.SyncStats{
		Uploaded:   result.Applied,
		Downloaded: len(result.Delta),
		Conflicted: len(result.Conflicts),
	}

	if _, err = tx.ExecContext(ctx, insertAuditRow,
		cmd.UserID, cmd.DeviceID, cmd.DeviceType, cmd.AppVersion,
		result.Stats.Uploaded, result.Stats.Downloaded, result.Stats.Conflicted,
	); err != nil {
		return models.SyncResult{}, r.wrap(ErrExecutingStatement, err)
	}

	if _, err = tx.ExecContext(ctx, updateUserLastSync, cmd.UserID, result.Checkpoint); err != nil {
		return models.SyncResult{}, r.wrap(ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		return models.SyncResult{}, r.wrap(ErrCommitingTransaction, err)
	}

	return result, nil
}

// applyMutation applies a single operation inside tx. It returns whether
// the write was applied and, when the stored row won, the stored value.
func (r *syncRepository) applyMutation(ctx context.Context, tx *sql.Tx, userID int64, op models.MutationOperation) (bool, *models.Entity, error) {
	entity := op.Entity
	if entity.OwnerID == 0 {
		entity.OwnerID = userID
	}

	var (
		ownerID       int64
		sharedSpaceID *string
		lastModified  time.Time
		version       int64
	)

	err := tx.QueryRowContext(ctx, selectEntityForApply, entity.ID).
		Scan(&ownerID, &sharedSpaceID, &lastModified, &version)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, execErr := tx.ExecContext(ctx, insertEntity,
			entity.ID, entity.Kind, entity.OwnerID, entity.SharedSpaceID,
			entity.Name, entity.Category, entity.Amount,
			entity.DueDay, entity.Month,
			entity.CreatedAt.UTC(), entity.UpdatedAt.UTC(), entity.Deleted,
		); execErr != nil {
			return false, nil, r.wrap(ErrExecutingStatement, execErr)
		}
		return true, nil, nil

	case err != nil:
		return false, nil, r.wrap(ErrExecutingQuery, err)
	}

	if ownerID != userID {
		member, memberErr := r.memberOfSpace(ctx, userID, sharedSpaceID)
		if memberErr != nil {
			return false, nil, memberErr
		}
		if !member {
			return false, nil, fmt.Errorf("%w: entity %s", ErrNotSpaceMember, entity.ID)
		}
	}

	switch {
	case entity.UpdatedAt.After(lastModified):
		if _, execErr := tx.ExecContext(ctx, updateEntity,
			entity.ID, entity.Name, entity.Category, entity.Amount,
			entity.DueDay, entity.Month,
			entity.UpdatedAt.UTC(), entity.Deleted,
		); execErr != nil {
			return false, nil, r.wrap(ErrExecutingStatement, execErr)
		}
		return true, nil, nil

	case entity.UpdatedAt.Equal(lastModified):
		// Replay of an already-applied write (e.g. the previous pass
		// failed after upload). Idempotent: nothing to do.
		return true, nil, nil

	default:
		stored, readErr := r.readEntity(ctx, tx, entity.ID)
		if readErr != nil {
			return false, nil, readErr
		}
		return false, stored, nil
	}
}

// memberOfSpace reports whether userID belongs to the entity's shared
// space. A nil space means the row is private and only its owner may
// write it.
func (r *syncRepository) memberOfSpace(ctx context.Context, userID int64, spaceID *string) (bool, error) {
	if spaceID == nil {
		return false, nil
	}
	return r.spaces.IsMember(ctx, userID, *spaceID)
}

func (r *syncRepository) readEntity(ctx context.Context, tx *sql.Tx, id string) (*models.Entity, error) {
	var (
		entity  models.Entity
		version int64
	)
	err := tx.QueryRowContext(ctx, selectEntityFull, id).Scan(
		&entity.ID,
		&entity.Kind,
		&entity.OwnerID,
		&entity.SharedSpaceID,
		&entity.Name,
		&entity.Category,
		&entity.Amount,
		&entity.DueDay,
		&entity.Month,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&entity.Deleted,
		&version,
	)
	if err != nil {
		return nil, r.wrap(ErrScanningRow, err)
	}

	return &entity, nil
}

func (r *syncRepository) readDelta(ctx context.Context, tx *sql.Tx, userID int64, since *time.Time) ([]models.Entity, error) {
	query, args, err := buildDeltaQuery(userID, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	delta := make([]models.Entity, 0, 50)

	for rows.Next() {
		var (
			entity  models.Entity
			version int64
		)
		if scanErr := rows.Scan(
			&entity.ID,
			&entity.Kind,
			&entity.OwnerID,
			&entity.SharedSpaceID,
			&entity.Name,
			&entity.Category,
			&entity.Amount,
			&entity.DueDay,
			&entity.Month,
			&entity.CreatedAt,
			&entity.UpdatedAt,
			&entity.Deleted,
			&version,
		); scanErr != nil {
			return nil, r.wrap(ErrScanningRow, scanErr)
		}

		delta = append(delta, entity)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, r.wrap(ErrScanningRows, rowsErr)
	}

	return delta, nil
}

// wrap pairs a sentinel with the driver error and tags transient failures
// with [ErrStorageUnavailable] so the transport layer can answer 503.
func (r *syncRepository) wrap(sentinel, err error) error {
	if r.errorClassificator != nil && r.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", ErrStorageUnavailable, sentinel, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
