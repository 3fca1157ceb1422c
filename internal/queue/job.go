package queue

import (
	"github.com/schemaflow/schemaflow/internal/schema"
)

// BatchJob is the unit of work delivered to batch workers: one schema
// batch bound for one target database. Delivery is at-least-once, so
// handlers must tolerate redelivery.
type BatchJob struct {
	UserID      string       `json:"userId"`
	MigrationID string       `json:"migrationId"`
	Batch       schema.Batch `json:"batch"`
	TargetDB    string       `json:"targetDb"`
}
