package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is an account row on the server side. Account issuance and family
// membership administration are handled outside this service; the sync
// engine only reads the identity and maintains LastSyncAt.
type User struct {
	UserID     int64      `json:"user_id"`
	Login      string     `json:"login"`
	Name       string     `json:"name"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
}

// TableName returns the name of the database table associated with User.
func (u *User) TableName() string {
	return "users"
}

// Token pairs a parsed JWT with the identity it proves. The sync server
// never issues tokens, it only validates bearer tokens produced by the
// account service.
type Token struct {
	Token        *jwt.Token `json:"-"`
	SignedString string     `json:"token"`
	UserID       int64      `json:"user_id"`
}
