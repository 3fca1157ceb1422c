package migration

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/internal/status"
)

// Repository implements the Store interface with GORM
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new migration record repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new migration record
func (r *Repository) Create(ctx context.Context, m *Migration) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Find loads a migration record by id
func (r *Repository) Find(ctx context.Context, id string) (*Migration, error) {
	var m Migration
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NewNotFoundError("migration", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateStatus writes the lifecycle status and optional message
func (r *Repository) UpdateStatus(ctx context.Context, id, migrationStatus, message string) error {
	updates := map[string]interface{}{"status": migrationStatus}
	if message != "" {
		updates["message"] = message
	}
	return r.db.WithContext(ctx).Model(&Migration{}).Where("id = ?", id).Updates(updates).Error
}

// SetSnapshot records the stored snapshot reference and batch count
func (r *Repository) SetSnapshot(ctx context.Context, id, ref string, batchCount int) error {
	return r.db.WithContext(ctx).Model(&Migration{}).Where("id = ?", id).Updates(map[string]interface{}{
		"snapshot_ref": ref,
		"batch_count":  batchCount,
	}).Error
}

// RecordCompleted marks the migration completed. The status guard makes
// the write idempotent under concurrent finalizing workers.
func (r *Repository) RecordCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Migration{}).
		Where("id = ? AND status <> ?", id, status.StatusCompleted).
		Updates(map[string]interface{}{
			"status":       status.StatusCompleted,
			"completed_at": &now,
		}).Error
}

// RecordFailed marks the migration failed with a human-readable message
func (r *Repository) RecordFailed(ctx context.Context, id, message string) error {
	return r.UpdateStatus(ctx, id, status.StatusFailed, message)
}

// RecordRolledBack marks the migration rolled back
func (r *Repository) RecordRolledBack(ctx context.Context, id string) error {
	return r.UpdateStatus(ctx, id, status.StatusRolledBack, "Previous schema restored")
}
