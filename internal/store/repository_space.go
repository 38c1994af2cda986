// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package store

import (
	"context"
	"fmt"

	"github.com/ykarpov/billkeeper/internal/logger"
)

type spaceRepository struct {
	*DB
	logger *logger.Logger
}

// NewSpaceRepository constructs a [SpaceRepository] backed by the provided
// database connection.
func NewSpaceRepository(db *DB, log *logger.Logger) SpaceRepository {
	return &spaceRepository{
		DB:     db,
		logger: log,
	}
}

// IsMember implements [SpaceRepository].
func (r *spaceRepository) IsMember(ctx context.Context, userID int64, spaceID string) (bool, error) {
	var member bool
	err := r.DB.QueryRowContext(ctx, selectIsSpaceMember, userID, spaceID).Scan(&member)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Int64("user_id", userID).
			Str("space_id", spaceID).
			Msg("failed to check space membership")
		return false, r.wrap(ErrExecutingQuery, err)
	}

	return member, nil
}

// wrap pairs a sentinel with the driver error and tags transient failures
// with [ErrStorageUnavailable], same as the sync repository does.
func (r *spaceRepository) wrap(sentinel, err error) error {
	if r.errorClassificator != nil && r.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", ErrStorageUnavailable, sentinel, err)
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
