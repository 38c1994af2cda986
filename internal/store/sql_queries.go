package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	selectEntityForApply = `SELECT owner_id, shared_space_id, last_modified, version
		FROM entities
		WHERE id = $1;`

	selectEntityFull = `SELECT id, kind, owner_id, shared_space_id, name, category, amount,
			due_day, month, created_at, last_modified, deleted, version
		FROM entities
		WHERE id = $1;`

	insertEntity = `INSERT INTO entities (
			id,
			kind,
			owner_id,
			shared_space_id,
			name,
			category,
			amount,
			due_day,
			month,
			created_at,
			last_modified,
			deleted,
			version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1);`

	updateEntity = `UPDATE entities
		SET name = $2,
			category = $3,
			amount = $4,
			due_day = $5,
			month = $6,
			last_modified = $7,
			deleted = $8,
			version = version + 1
		WHERE id = $1;`

	selectIsSpaceMember = `SELECT EXISTS (
			SELECT 1 FROM space_members WHERE user_id = $1 AND space_id = $2
		);`

	insertAuditRow = `INSERT INTO sync_audit (
			user_id, device_id, device_type, app_version, uploaded, downloaded, conflicted
		) VALUES ($1, $2, $3, $4, $5, $6, $7);`

	updateUserLastSync = `UPDATE users SET last_sync_at = $2 WHERE user_id = $1;`

	selectTransactionNow = `SELECT now();`
)

// buildDeltaQuery constructs the download half of a sync call: every row
// visible to the user — owned directly or through a shared space —
// modified after since. Tombstones are included so a delete on one device
// reaches the others; a nil since requests the full visible collection,
// where tombstones are skipped because a fresh client has nothing to
// remove.
func buildDeltaQuery(userID int64, since *time.Time) (string, []any, error) {
	builder := sq.Select(
		"id", "kind", "owner_id", "shared_space_id", "name", "category", "amount",
		"due_day", "month", "created_at", "last_modified", "deleted", "version",
	).
		From("entities").
		Where(sq.Or{
			sq.Eq{"owner_id": userID},
			sq.Expr("shared_space_id IN (SELECT space_id FROM space_members WHERE user_id = ?)", userID),
		}).
		OrderBy("last_modified ASC").
		PlaceholderFormat(sq.Dollar)

	if since != nil {
		builder = builder.Where(sq.Gt{"last_modified": *since})
	} else {
		builder = builder.Where(sq.Eq{"deleted": false})
	}

	return builder.ToSql()
}
