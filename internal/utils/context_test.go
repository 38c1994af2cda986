// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yuri Karpov

package utils

import (
	"context"
	"testing"
)

func TestGetUserIDFromContext_ReturnsStoredID(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDCtxKey, int64(42))

	userID, ok := GetUserIDFromContext(ctx)

	if !ok {
		t.Fatal("expected ok=true, got false")
	}
	if userID != 42 {
		t.Errorf("expected userID=42, got %d", userID)
	}
}

func TestGetUserIDFromContext_UnauthenticatedContext(t *testing.T) {
	userID, ok := GetUserIDFromContext(context.Background())

	if ok {
		t.Fatal("expected ok=false, got true")
	}
	if userID != 0 {
		t.Errorf("expected userID=0, got %d", userID)
	}
}

func TestGetUserIDFromContext_WrongValueType(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDCtxKey, "42")

	if _, ok := GetUserIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for non-int64 value, got true")
	}
}

func TestGetUserIDFromContext_StringKeyDoesNotCollide(t *testing.T) {
	// A plain string key with the same text must not be confused with the
	// typed key.
	ctx := context.WithValue(context.Background(), "userID", int64(99)) //nolint:staticcheck

	if _, ok := GetUserIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for string-keyed value, got true")
	}
}

func TestContextKeyString(t *testing.T) {
	if UserIDCtxKey.String() != "userID" {
		t.Errorf("expected 'userID', got '%s'", UserIDCtxKey.String())
	}
}
