// Package store contains the server-side persistence layer: the PostgreSQL
// connection wrapper, the transactional sync repository, and error
// classification for retry decisions.
package store

import (
	"context"

	"github.com/ykarpov/billkeeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/sync_repository_mock.go -package=mock

// SyncRepository is the authoritative-side storage contract. Sync executes
// one client call — mutation apply plus delta read — inside a single
// database transaction, which is the unit of atomicity for the protocol.
// Concurrent calls for the same user are not mutually excluded beyond the
// per-row timestamp compare: the consistency guarantee is last-write-wins.
type SyncRepository interface {
	Sync(ctx context.Context, cmd models.SyncCommand) (models.SyncResult, error)
}

// SpaceRepository answers shared-space membership questions. Membership
// administration happens in another service; this repository only reads.
type SpaceRepository interface {
	IsMember(ctx context.Context, userID int64, spaceID string) (bool, error)
}
