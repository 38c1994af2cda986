// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ykarpov/billkeeper/internal/config"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/utils"
	"github.com/ykarpov/billkeeper/models"
)

// authService is the concrete implementation of AuthService. Account
// creation and credential handling live in a separate account service;
// this one only verifies the tokens it issues.
type authService struct {
	// tokenSignKey is the HMAC secret used to verify JWT signatures.
	tokenSignKey string

	// tokenIssuer is the expected "iss" claim. Tokens with a different
	// issuer are rejected.
	tokenIssuer string

	logger *logger.Logger
}

// NewAuthService constructs an AuthService populated with security
// parameters from cfg. The returned service is safe for concurrent use.
func NewAuthService(cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		tokenSignKey: cfg.TokenSignKey,
		tokenIssuer:  cfg.TokenIssuer,
		logger:       logger,
	}
}

// ParseToken validates the given JWT token string and extracts the user id
// from its subject claim.
//
// Returns ErrTokenIsExpired for expired tokens and ErrInvalidDataProvided
// for an empty token string; all other verification failures are wrapped.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return models.Token{}, ErrInvalidDataProvided
	}

	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			log.Err(err).Msg("token is expired")
			return models.Token{}, ErrTokenIsExpired
		}
		log.Err(err).Msg("token verification failed")
		return models.Token{}, fmt.Errorf("token verification failed: %w", err)
	}

	return token, nil
}
