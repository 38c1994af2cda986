// Package localstore implements the client-side durable store: a small
// key/value layer over SQLite with an optional short-TTL in-memory read
// cache. The sync engine persists four records through it — the mutation
// queue, the pending-operation count, the sync checkpoint, and the entity
// collection — and treats every completed Set as crash-consistent.
package localstore

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/local_store_mock.go -package=mock

// Well-known keys of the sync engine's persisted records.
const (
	KeyQueue        = "sync:queue"
	KeyPendingCount = "sync:pending_count"
	KeyCheckpoint   = "sync:checkpoint"
	KeyEntities     = "sync:entities"
)

// LocalStore is the durable key/value contract the sync engine depends on.
// Get reports found=false for keys that were never set. Set must be durable
// before it returns. Invalidate drops any cached copy of key without
// touching the durable value; implementations without a cache treat it as
// a no-op.
type LocalStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error

	// Close releases the underlying database handle.
	Close() error
}
