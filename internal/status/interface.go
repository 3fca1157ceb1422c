package status

import "context"

// Service is the key-value store of migration and batch lifecycle
// state. It is the single source of truth for polling clients.
//
// Batch entries are updated through SetBatchStatus, an atomic per-entry
// write; implementations must not read and rewrite the whole batch map.
type Service interface {
	SetStatus(ctx context.Context, migrationID, status string) error
	GetStatus(ctx context.Context, migrationID string) (string, error)

	InitBatches(ctx context.Context, migrationID string, count int) error
	SetBatchStatus(ctx context.Context, migrationID string, sequence int, status string) error
	GetBatchStatus(ctx context.Context, migrationID string, sequence int) (string, error)
	BatchStatuses(ctx context.Context, migrationID string) (map[int]string, error)
	AllBatchesCompleted(ctx context.Context, migrationID string) (bool, error)

	// MarkCompleted transitions the migration to completed. It reports
	// whether this call was the first to finalize, so concurrent
	// workers observing "all batches complete" at the same time
	// finalize exactly once.
	MarkCompleted(ctx context.Context, migrationID string) (bool, error)

	SetRollbackRef(ctx context.Context, migrationID, ref string) error
	GetRollbackRef(ctx context.Context, migrationID string) (string, error)

	Cancel(ctx context.Context, migrationID string) error
	IsCancelled(ctx context.Context, migrationID string) (bool, error)
}
