// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/store"
	"github.com/ykarpov/billkeeper/models"
)

const (
	// maxUploadBatch caps a single upload call. Clients chunk at a much
	// smaller size; the cap only guards against malformed requests.
	maxUploadBatch = 500

	// clockSkewAllowance is how far ahead of the server clock a client
	// checkpoint may lie before the request is rejected as malformed.
	clockSkewAllowance = 5 * time.Minute
)

// syncService is the concrete implementation of SyncService. It validates
// incoming sync commands and delegates the transactional work to the
// SyncRepository; it holds no state of its own.
type syncService struct {
	repository store.SyncRepository
	logger     *logger.Logger
	now        func() time.Time
}

// NewSyncService constructs a SyncService wired to the given repository.
func NewSyncService(repository store.SyncRepository, logger *logger.Logger) SyncService {
	return &syncService{
		repository: repository,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload implements SyncService. It validates every mutation in the batch
// before touching storage so that a malformed request never opens a
// transaction, then applies the whole batch in one repository call.
func (s *syncService) Upload(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	if cmd.UserID <= 0 {
		log.Error().Msg("upload rejected: no user id")
		return models.SyncResult{}, ErrValidationNoUserID
	}
	if len(cmd.Mutations) > maxUploadBatch {
		log.Error().Int("length", len(cmd.Mutations)).Msg("upload rejected: batch too large")
		return models.SyncResult{}, ErrValidationBatchTooLarge
	}
	for _, op := range cmd.Mutations {
		if err := validateMutation(op); err != nil {
			log.Err(err).Str("op_id", op.ID).Msg("upload rejected: invalid mutation")
			return models.SyncResult{}, err
		}
	}

	cmd.WithDelta = false

	result, err := s.repository.Sync(ctx, cmd)
	if err != nil {
		log.Err(err).Int64("user_id", cmd.UserID).Msg("upload ended with error")
		return models.SyncResult{}, fmt.Errorf("upload ended with error: %w", err)
	}

	log.Info().
		Int64("user_id", cmd.UserID).
		Int("applied", result.Applied).
		Int("conflicted", len(result.Conflicts)).
		Msg("upload applied")

	return result, nil
}

// Download implements SyncService.
func (s *syncService) Download(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	if cmd.UserID <= 0 {
		log.Error().Msg("download rejected: no user id")
		return models.SyncResult{}, ErrValidationNoUserID
	}
	if cmd.Since != nil && cmd.Since.After(s.now().Add(clockSkewAllowance)) {
		log.Error().Time("since", *cmd.Since).Msg("download rejected: checkpoint in the future")
		return models.SyncResult{}, ErrValidationSinceInTheFuture
	}

	cmd.Mutations = nil
	cmd.WithDelta = true

	result, err := s.repository.Sync(ctx, cmd)
	if err != nil {
		log.Err(err).Int64("user_id", cmd.UserID).Msg("download ended with error")
		return models.SyncResult{}, fmt.Errorf("download ended with error: %w", err)
	}

	log.Info().
		Int64("user_id", cmd.UserID).
		Int("downloaded", len(result.Delta)).
		Msg("download served")

	return result, nil
}

func validateMutation(op models.MutationOperation) error {
	entity := op.Entity

	switch op.Action {
	case models.ActionCreate, models.ActionUpdate, models.ActionDelete:
	default:
		return fmt.Errorf("%w: %q", ErrValidationUnknownAction, op.Action)
	}

	if entity.ID == "" || entity.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: id=%q", ErrValidationBadEntity, entity.ID)
	}

	switch entity.Kind {
	case models.KindBill, models.KindBudget:
	default:
		return fmt.Errorf("%w: %q", ErrValidationUnknownKind, entity.Kind)
	}

	if entity.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrValidationNegativeAmount, entity.Amount)
	}

	return nil
}
