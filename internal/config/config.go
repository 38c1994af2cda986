// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// billkeeper application. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as token verification
	// parameters and the application version string reported on uploads.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for all persistence backends: the
	// server-side relational database and the client-side local store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address and timeout settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Adapter holds client transport settings for reaching the sync server.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Sync holds the synchronization engine tunables shared by client
	// and server.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// TokenSignKey is the secret key used to verify bearer-token
	// signatures. Tokens themselves are issued by the account service;
	// this server only validates them.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the expected "iss" claim of accepted tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// Version is the application version string sent with every upload.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// DeviceID identifies this installation on the wire. Generated once
	// and persisted by the client when empty.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`

	// DeviceType labels the device class ("cli", "desktop", "mobile").
	// Env: APP_DEVICE_TYPE
	DeviceType string `env:"DEVICE_TYPE"`
}

// Storage groups the configuration for all storage backends.
type Storage struct {
	// DB holds the server-side relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// Local holds the client-side durable store settings.
	Local Local `envPrefix:"LOCAL_"`
}

// DB contains the PostgreSQL connection settings.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Local contains the client-side durable store settings.
type Local struct {
	// Path is the SQLite database file backing the local store.
	// Env: STORAGE_LOCAL_PATH
	Path string `env:"PATH"`

	// CacheTTL bounds how long a read served from the in-memory cache may
	// lag a concurrent write. Collaborators reading through the cache must
	// treat it as eventually consistent.
	// Env: STORAGE_LOCAL_CACHE_TTL
	CacheTTL time.Duration `env:"CACHE_TTL"`
}

// Server holds HTTP server settings.
type Server struct {
	// HTTPAddress is the listen address in host:port form.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	// Env: SERVER_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Adapter holds client transport settings for the sync server.
type Adapter struct {
	// BaseURL is the sync server base URL.
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout is the per-request timeout of the HTTP client. The
	// orchestrator enforces no deadline of its own across a pass; this is
	// the only timeout in play.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Sync holds the synchronization engine tunables. Zero values are replaced
// by the defaults below at validation time.
type Sync struct {
	// BatchSize is the maximum number of mutations per upload call.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// MaxAttempts is the number of retries after the initial attempt of
	// a sync pass.
	// Env: SYNC_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// BaseDelay is the first backoff delay; each retry doubles it.
	// Env: SYNC_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// Interval is the periodic trigger interval.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// StalenessThreshold is the checkpoint age beyond which the periodic
	// trigger fires even with no pending changes.
	// Env: SYNC_STALENESS_THRESHOLD
	StalenessThreshold time.Duration `env:"STALENESS_THRESHOLD"`
}

// Sync engine defaults. They mirror the protocol constants the server
// expects, so overriding them is rarely needed outside tests.
const (
	DefaultBatchSize          = 50
	DefaultMaxAttempts        = 3
	DefaultBaseDelay          = 1000 * time.Millisecond
	DefaultSyncInterval       = 5 * time.Minute
	DefaultStalenessThreshold = 30 * time.Minute
	DefaultCacheTTL           = 5 * time.Second
)

// GetStructuredConfig loads, merges, and validates the application
// configuration from environment variables, command-line flags, and an
// optional JSON file.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}

// applySyncDefaults fills zero-valued sync tunables with their defaults.
func (s *Sync) applyDefaults() {
	if s.BatchSize <= 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = DefaultMaxAttempts
	}
	if s.BaseDelay <= 0 {
		s.BaseDelay = DefaultBaseDelay
	}
	if s.Interval <= 0 {
		s.Interval = DefaultSyncInterval
	}
	if s.StalenessThreshold <= 0 {
		s.StalenessThreshold = DefaultStalenessThreshold
	}
}
