// Package service contains the server-side business layer sitting between
// the HTTP handlers and the store: request validation, authorization, and
// delegation to the transactional sync repository.
package service

import (
	"context"

	"github.com/ykarpov/billkeeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SyncService executes one sync call on behalf of an authenticated user.
type SyncService interface {
	// Upload applies a batch of client mutations and reports conflicts.
	Upload(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error)

	// Download returns every entity visible to the user modified after
	// cmd.Since, together with a server-side checkpoint.
	Download(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error)
}

// AuthService verifies bearer tokens issued by the account service.
type AuthService interface {
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
