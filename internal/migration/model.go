package migration

import (
	"time"

	"github.com/google/uuid"
)

// Migration is the durable record of one schema migration attempt.
// Records are never deleted; they back audit and rollback.
type Migration struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string     `gorm:"index;not null" json:"userId"`
	SourceDB    string     `gorm:"not null" json:"sourceDb"`
	TargetDB    string     `gorm:"not null" json:"targetDb"`
	Status      string     `gorm:"not null;type:varchar(32);default:'created'" json:"status"`
	Message     string     `json:"message,omitempty"`
	BatchCount  int        `json:"batchCount"`
	SnapshotRef string     `json:"snapshotRef,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
