// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package adapter provides transport-layer abstractions for communicating
// with the billkeeper sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync
// orchestrator from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrNotAuthenticated] for 401); [Retryable] classifies
// any adapter error for the orchestrator's backoff decision.
package adapter

import (
	"context"
	"time"

	"github.com/ykarpov/billkeeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the sync
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel
// values defined in this package.
type ServerAdapter interface {
	// Upload sends one batch of pending mutations. The caller chunks the
	// queue; the adapter sends exactly what it is given.
	Upload(ctx context.Context, mutations []models.MutationOperation) (models.UploadResponse, error)

	// Download fetches every entity modified after since. A nil since
	// requests the full collection (first sync of a device).
	Download(ctx context.Context, since *time.Time) (models.DownloadResponse, error)
}

// TokenProvider supplies the opaque bearer token attached to every
// authenticated request. An empty token means "not authenticated", which
// the adapter surfaces as the non-retryable [ErrNotAuthenticated].
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider is a TokenProvider returning a fixed token, useful
// when the account service hands the client a long-lived token at startup.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return string(p), nil
}
