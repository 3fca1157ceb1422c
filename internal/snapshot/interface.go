package snapshot

import "context"

// Store persists immutable schema snapshots keyed by migration id.
// Put is an idempotent upsert by path; snapshots are retained
// indefinitely for audit and rollback.
type Store interface {
	Put(ctx context.Context, migrationID, content string) (string, error)
	Get(ctx context.Context, migrationID string) (string, error)
	Exists(ctx context.Context, migrationID string) (bool, error)
}

// Logger defines the logging interface used by the snapshot package
type Logger interface {
	LogInfo(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
}
