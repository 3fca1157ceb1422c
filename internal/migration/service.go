package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/internal/apply"
	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/correct"
	"github.com/schemaflow/schemaflow/internal/fetch"
	"github.com/schemaflow/schemaflow/internal/logger"
	"github.com/schemaflow/schemaflow/internal/queue"
	"github.com/schemaflow/schemaflow/internal/schema"
	"github.com/schemaflow/schemaflow/internal/snapshot"
	"github.com/schemaflow/schemaflow/internal/status"
)

// Config holds orchestration policy knobs
type Config struct {
	// BatchSize is the number of schema lines per batch.
	BatchSize int

	// FallbackToOriginal controls what happens when the correction
	// service fails: continue with the uncorrected schema (availability
	// over correctness) or fail the migration. Incompatibilities masked
	// by the fallback surface later as batch apply failures.
	FallbackToOriginal bool
}

// Service drives the migration state machine:
// created -> validating -> validated -> migrating -> completed, with
// failed reachable from any non-terminal state and rolled-back
// reachable from completed via explicit rollback. The pre-queue phase
// of one migration has a single writer: this service.
type Service struct {
	store     Store
	status    status.Service
	snapshots snapshot.Store
	fetchers  *fetch.Registry
	corrector correct.Corrector
	producer  queue.Producer
	publisher broadcast.Publisher
	applier   apply.Applier
	config    *Config
	logger    logger.Logger
}

// NewService creates the migration orchestrator
func NewService(
	store Store,
	statusSvc status.Service,
	snapshots snapshot.Store,
	fetchers *fetch.Registry,
	corrector correct.Corrector,
	producer queue.Producer,
	publisher broadcast.Publisher,
	applier apply.Applier,
	config *Config,
	log logger.Logger,
) *Service {
	cfg := *config
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &Service{
		store:     store,
		status:    statusSvc,
		snapshots: snapshots,
		fetchers:  fetchers,
		corrector: corrector,
		producer:  producer,
		publisher: publisher,
		applier:   applier,
		config:    &cfg,
		logger:    log,
	}
}

// StartMigration validates the request, runs the pre-queue pipeline
// (extract, correct, snapshot, chunk), enqueues one job per batch and
// returns the migration id. Batches finish asynchronously in the
// worker pool.
func (s *Service) StartMigration(ctx context.Context, userID, sourceDB, targetDB string) (string, error) {
	if userID == "" {
		return "", apperror.NewValidationError("userId", "userId is required")
	}
	if sourceDB == "" {
		return "", apperror.NewValidationError("sourceDB", "sourceDB is required")
	}
	if targetDB == "" {
		return "", apperror.NewValidationError("targetDB", "targetDB is required")
	}

	m := &Migration{
		ID:       uuid.New(),
		UserID:   userID,
		SourceDB: sourceDB,
		TargetDB: targetDB,
		Status:   status.StatusCreated,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return "", fmt.Errorf("failed to create migration record: %w", err)
	}
	id := m.ID.String()
	if err := s.status.SetStatus(ctx, id, status.StatusCreated); err != nil {
		return "", fmt.Errorf("failed to initialize status record: %w", err)
	}

	s.transition(ctx, m, status.StatusValidating, "Validating database schemas")

	schemaText, err := s.fetchers.Fetch(ctx, sourceDB)
	if err != nil {
		return id, s.fail(ctx, m, "Schema extraction failed", err)
	}
	if len(schema.Chunk(schemaText, s.config.BatchSize)) == 0 {
		return id, s.fail(ctx, m, "Extracted schema is empty",
			apperror.NewExtractionError("source database has no schema objects", nil))
	}

	finalSchema, err := s.correctSchema(ctx, m, schemaText)
	if err != nil {
		return id, s.fail(ctx, m, "Schema correction failed", err)
	}

	ref, err := s.snapshots.Put(ctx, id, finalSchema)
	if err != nil {
		return id, s.fail(ctx, m, "Failed to store schema snapshot", err)
	}
	if err := s.status.SetRollbackRef(ctx, id, ref); err != nil {
		return id, s.fail(ctx, m, "Failed to record rollback reference", err)
	}

	batches := schema.Chunk(finalSchema, s.config.BatchSize)
	if err := s.store.SetSnapshot(ctx, id, ref, len(batches)); err != nil {
		return id, s.fail(ctx, m, "Failed to update migration record", err)
	}

	s.transition(ctx, m, status.StatusValidated, "Schema validated and snapshotted")

	if err := s.status.InitBatches(ctx, id, len(batches)); err != nil {
		return id, s.fail(ctx, m, "Failed to initialize batch tracking", err)
	}
	for _, batch := range batches {
		job := queue.BatchJob{
			UserID:      userID,
			MigrationID: id,
			Batch:       batch,
			TargetDB:    targetDB,
		}
		if err := s.producer.Enqueue(ctx, job); err != nil {
			return id, s.fail(ctx, m, fmt.Sprintf("Failed to enqueue batch %d", batch.Sequence), err)
		}
	}

	s.transition(ctx, m, status.StatusMigrating, fmt.Sprintf("Applying schema in %d batches", len(batches)))

	s.logger.LogInfo("Migration handed off to worker pool", map[string]interface{}{
		"migrationId": id,
		"batches":     len(batches),
	})
	return id, nil
}

// correctSchema calls the external corrector and applies the fallback
// policy when it fails.
func (s *Service) correctSchema(ctx context.Context, m *Migration, schemaText string) (string, error) {
	targetEngine := fetch.Scheme(m.TargetDB)

	result, err := s.corrector.Correct(ctx, schemaText, targetEngine)
	if err == nil && result.Success {
		return result.CorrectedSchema, nil
	}

	if !s.config.FallbackToOriginal {
		if err != nil {
			return "", err
		}
		return "", apperror.NewCorrectionError(result.Error, nil)
	}

	fields := map[string]interface{}{
		"migrationId": m.ID.String(),
	}
	if err != nil {
		fields["error"] = err.Error()
	} else {
		fields["error"] = result.Error
	}
	s.logger.LogWarn("Correction unavailable, continuing with original schema", fields)
	return schemaText, nil
}

// GetStatus reads the live status record, falling back to the durable
// migration record when the status store has no entry.
func (s *Service) GetStatus(ctx context.Context, id string) (string, error) {
	current, err := s.status.GetStatus(ctx, id)
	if err == nil {
		return current, nil
	}
	if err != status.ErrNotFound {
		return "", err
	}

	m, err := s.store.Find(ctx, id)
	if err != nil {
		return "", err
	}
	return m.Status, nil
}

// Rollback restores the stored previous schema on the target. Only a
// completed migration can be rolled back; an in-flight one still has
// workers applying batches that would race the restored schema. The
// status record only changes after a successful apply; a failed apply
// leaves the migration exactly as it was and retrying is the caller's
// responsibility.
func (s *Service) Rollback(ctx context.Context, id string) (string, error) {
	m, err := s.store.Find(ctx, id)
	if err != nil {
		return "", err
	}

	current, err := s.GetStatus(ctx, id)
	if err != nil {
		return "", err
	}
	if current != status.StatusCompleted {
		return "", apperror.NewRollbackError(
			fmt.Sprintf("Only a completed migration can be rolled back, current status is %s.", current), nil)
	}

	exists, err := s.snapshots.Exists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to check snapshot: %w", err)
	}
	if !exists {
		return "", apperror.NewRollbackError("No previous schema found for rollback.", nil)
	}

	content, err := s.snapshots.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := s.applier.Apply(ctx, m.TargetDB, content); err != nil {
		return "", apperror.NewRollbackError("Failed to apply previous schema", err)
	}

	if err := s.status.SetStatus(ctx, id, status.StatusRolledBack); err != nil {
		return "", fmt.Errorf("failed to update status record: %w", err)
	}
	if err := s.store.RecordRolledBack(ctx, id); err != nil {
		s.logger.LogError(err, "failed to record rollback")
	}
	s.publish(ctx, m.UserID, status.StatusRolledBack, "Previous schema restored")

	s.logger.LogInfo("Migration rolled back", map[string]interface{}{
		"migrationId": id,
	})
	return "Previous schema restored", nil
}

// Cancel flags the migration so workers drop its remaining batches
func (s *Service) Cancel(ctx context.Context, id string) error {
	m, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.status.Cancel(ctx, id); err != nil {
		return fmt.Errorf("failed to set cancellation flag: %w", err)
	}
	s.publish(ctx, m.UserID, "cancelling", "Cancellation requested")
	return nil
}

// transition advances the state machine one step, keeping the status
// store, the durable record and live subscribers in causal order.
func (s *Service) transition(ctx context.Context, m *Migration, to, message string) {
	id := m.ID.String()
	if err := s.status.SetStatus(ctx, id, to); err != nil {
		s.logger.LogError(err, "failed to update status record")
	}
	if err := s.store.UpdateStatus(ctx, id, to, ""); err != nil {
		s.logger.LogError(err, "failed to update migration record")
	}
	s.publish(ctx, m.UserID, to, message)
}

// fail is the single place that writes terminal failed status for a
// migration. The record is retained with a queryable message.
func (s *Service) fail(ctx context.Context, m *Migration, message string, cause error) error {
	id := m.ID.String()
	s.logger.LogError(cause, message)

	if err := s.status.SetStatus(ctx, id, status.StatusFailed); err != nil {
		s.logger.LogError(err, "failed to update status record")
	}
	if err := s.store.RecordFailed(ctx, id, fmt.Sprintf("%s: %v", message, cause)); err != nil {
		s.logger.LogError(err, "failed to update migration record")
	}
	s.publish(ctx, m.UserID, status.StatusFailed, message)
	return cause
}

func (s *Service) publish(ctx context.Context, userID, eventStatus, message string) {
	event := broadcast.Event{
		Status:    eventStatus,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, userID, event); err != nil {
		s.logger.LogWarn("Failed to publish progress event", map[string]interface{}{
			"status": eventStatus,
			"error":  err.Error(),
		})
	}
}
