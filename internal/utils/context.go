// Package utils holds small helpers shared across the client and server:
// typed context keys, JSON response writing, JWT generation and validation,
// and id generation for the mutation log.
package utils

import (
	"context"
)

// contextKey is a private key type so values stored by this package cannot
// collide with string keys from other packages.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey carries the authenticated user's id, placed into the request
// context by the auth middleware after the bearer token is verified.
var UserIDCtxKey = contextKey("userID")

// GetUserIDFromContext returns the authenticated user id stored under
// [UserIDCtxKey]. ok is false when the value is missing or not an int64,
// which on the server means the request never passed the auth middleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}
