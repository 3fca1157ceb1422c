package status

import "errors"

// Migration lifecycle statuses
const (
	StatusCreated    = "created"
	StatusValidating = "validating"
	StatusValidated  = "validated"
	StatusMigrating  = "migrating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusRolledBack = "rolled-back"
)

// Batch lifecycle statuses. Transitions are monotonic:
// pending -> applying -> {completed | failed | cancelled}.
const (
	BatchPending   = "pending"
	BatchApplying  = "applying"
	BatchCompleted = "completed"
	BatchFailed    = "failed"
	BatchCancelled = "cancelled"
)

// ErrNotFound is returned when no status record exists for a migration
var ErrNotFound = errors.New("status record not found")
