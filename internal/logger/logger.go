// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

// Package logger wraps zerolog.Logger with the constructors and
// context-aware helpers used across the billkeeper client and server.
//
// Logger embeds zerolog.Logger, so the full zerolog API (Debug, Info,
// Warn, Err, ...) is available directly. Request-scoped loggers are
// attached by the HTTP logging middleware and recovered with FromRequest
// or FromContext.
package logger

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// configureGlobals sets the process-wide zerolog knobs shared by every
// constructor: debug level and a "func" caller field carrying the
// fully-qualified function name instead of file:line.
func configureGlobals() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerFieldName = "func"
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
}

// NewLogger constructs the server-side logger for the given role label
// ("billkeeper-server"). Entries are JSON on stdout with role, timestamp
// and caller fields, ready for the log shipper.
func NewLogger(role string) *Logger {
	configureGlobals()

	logger := zerolog.New(os.Stdout).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// NewClientLogger constructs the client-side logger. The TUI owns the
// terminal, so output goes to a log file next to the executable; stdout is
// the fallback when the file cannot be opened (read-only install dir).
func NewClientLogger(role string) *Logger {
	configureGlobals()

	execPath, _ := os.Executable()
	logPath := filepath.Join(filepath.Dir(execPath), "billkeeper.log")
	out, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		out = os.Stdout
	}

	logger := zerolog.New(out).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// Nop returns a *Logger that discards everything. For tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a new *Logger inheriting all fields of the
// receiver; the child can be enriched without touching the parent.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// FromRequest returns the request-scoped logger the logging middleware
// attached to r's context.
func FromRequest(r *http.Request) *Logger {
	return &Logger{*log.Ctx(r.Context())}
}

// FromContext returns the logger attached to ctx. zerolog falls back to
// its global logger when none was attached, so the result is never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
