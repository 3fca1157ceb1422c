package migration

import "context"

// Store persists migration records. Implementations keep every record;
// terminal states are recorded, never removed.
type Store interface {
	Create(ctx context.Context, m *Migration) error
	Find(ctx context.Context, id string) (*Migration, error)
	UpdateStatus(ctx context.Context, id, status, message string) error
	SetSnapshot(ctx context.Context, id, ref string, batchCount int) error
	RecordCompleted(ctx context.Context, id string) error
	RecordFailed(ctx context.Context, id, message string) error
	RecordRolledBack(ctx context.Context, id string) error
}
