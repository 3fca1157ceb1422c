package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/schemaflow/schemaflow/internal/apply"
	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/logger"
	"github.com/schemaflow/schemaflow/internal/status"
)

// Recorder updates the durable migration record when a worker reaches a
// terminal outcome.
type Recorder interface {
	RecordCompleted(ctx context.Context, migrationID string) error
	RecordFailed(ctx context.Context, migrationID, message string) error
}

// Worker applies one schema batch per job, keeping the status store,
// the migration record, and progress subscribers in sync.
type Worker struct {
	status      status.Service
	publisher   broadcast.Publisher
	applier     apply.Applier
	recorder    Recorder
	logger      logger.Logger
	maxAttempts int
}

// NewWorker creates a batch worker
func NewWorker(statusSvc status.Service, publisher broadcast.Publisher, applier apply.Applier, recorder Recorder, log logger.Logger, maxAttempts int) *Worker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Worker{
		status:      statusSvc,
		publisher:   publisher,
		applier:     applier,
		recorder:    recorder,
		logger:      log,
		maxAttempts: maxAttempts,
	}
}

// ProcessJob handles one delivery of a batch job. A nil return means
// the job is finished (acknowledge it); a non-nil return means the
// apply failed transiently and the delivery should be retried.
//
// attempt is 1-based and counts deliveries of this job, including the
// current one.
func (w *Worker) ProcessJob(ctx context.Context, job BatchJob, attempt int) error {
	cancelled, err := w.status.IsCancelled(ctx, job.MigrationID)
	if err != nil {
		return fmt.Errorf("failed to read cancellation flag: %w", err)
	}
	if cancelled {
		return w.dropCancelled(ctx, job)
	}

	// At-least-once delivery: a terminal batch may be redelivered.
	// Batch transitions are monotonic, so never move it backwards.
	current, err := w.status.GetBatchStatus(ctx, job.MigrationID, job.Batch.Sequence)
	if err != nil && err != status.ErrNotFound {
		return fmt.Errorf("failed to read batch status: %w", err)
	}
	switch current {
	case status.BatchCompleted:
		return w.maybeFinalize(ctx, job)
	case status.BatchFailed, status.BatchCancelled:
		return nil
	}

	w.publish(ctx, job.UserID, "batch-applying", fmt.Sprintf("Applying batch %d", job.Batch.Sequence))
	if err := w.status.SetBatchStatus(ctx, job.MigrationID, job.Batch.Sequence, status.BatchApplying); err != nil {
		return fmt.Errorf("failed to mark batch applying: %w", err)
	}

	if err := w.applier.Apply(ctx, job.TargetDB, job.Batch.Content); err != nil {
		if attempt < w.maxAttempts {
			w.logger.LogWarn("Batch apply failed, will retry", map[string]interface{}{
				"migrationId": job.MigrationID,
				"sequence":    job.Batch.Sequence,
				"attempt":     attempt,
				"error":       err.Error(),
			})
			return err
		}
		return w.failBatch(ctx, job, err)
	}

	if err := w.status.SetBatchStatus(ctx, job.MigrationID, job.Batch.Sequence, status.BatchCompleted); err != nil {
		return fmt.Errorf("failed to mark batch completed: %w", err)
	}
	w.publish(ctx, job.UserID, "batch-applied", fmt.Sprintf("Batch %d applied", job.Batch.Sequence))

	return w.maybeFinalize(ctx, job)
}

// dropCancelled acknowledges a job for a cancelled migration without
// applying it.
func (w *Worker) dropCancelled(ctx context.Context, job BatchJob) error {
	if err := w.status.SetBatchStatus(ctx, job.MigrationID, job.Batch.Sequence, status.BatchCancelled); err != nil {
		return fmt.Errorf("failed to mark batch cancelled: %w", err)
	}
	if err := w.status.SetStatus(ctx, job.MigrationID, status.StatusFailed); err != nil {
		return fmt.Errorf("failed to mark migration failed: %w", err)
	}
	if err := w.recorder.RecordFailed(ctx, job.MigrationID, "Migration cancelled"); err != nil {
		w.logger.LogError(err, "failed to record cancellation")
	}
	w.publish(ctx, job.UserID, "cancelled", fmt.Sprintf("Batch %d dropped, migration cancelled", job.Batch.Sequence))
	return nil
}

// failBatch marks the batch and the migration failed after retries are
// exhausted. The migration never silently completes with a failed batch.
func (w *Worker) failBatch(ctx context.Context, job BatchJob, applyErr error) error {
	w.logger.LogError(applyErr, fmt.Sprintf("batch %d failed after %d attempts", job.Batch.Sequence, w.maxAttempts))

	if err := w.status.SetBatchStatus(ctx, job.MigrationID, job.Batch.Sequence, status.BatchFailed); err != nil {
		return fmt.Errorf("failed to mark batch failed: %w", err)
	}
	if err := w.status.SetStatus(ctx, job.MigrationID, status.StatusFailed); err != nil {
		return fmt.Errorf("failed to mark migration failed: %w", err)
	}
	message := fmt.Sprintf("Batch %d failed: %v", job.Batch.Sequence, applyErr)
	if err := w.recorder.RecordFailed(ctx, job.MigrationID, message); err != nil {
		w.logger.LogError(err, "failed to record batch failure")
	}
	w.publish(ctx, job.UserID, "batch-failed", message)
	return nil
}

// maybeFinalize completes the migration when this worker's own update
// made the batch map all-completed. Multiple workers can observe that
// state near-simultaneously; MarkCompleted arbitrates so the completion
// side effects run once.
func (w *Worker) maybeFinalize(ctx context.Context, job BatchJob) error {
	done, err := w.status.AllBatchesCompleted(ctx, job.MigrationID)
	if err != nil {
		return fmt.Errorf("failed to check batch completion: %w", err)
	}
	if !done {
		return nil
	}

	first, err := w.status.MarkCompleted(ctx, job.MigrationID)
	if err != nil {
		return fmt.Errorf("failed to finalize migration: %w", err)
	}
	if !first {
		return nil
	}

	if err := w.recorder.RecordCompleted(ctx, job.MigrationID); err != nil {
		w.logger.LogError(err, "failed to record migration completion")
	}
	w.publish(ctx, job.UserID, "completed", "Migration completed")
	w.logger.LogInfo("Migration completed", map[string]interface{}{
		"migrationId": job.MigrationID,
	})
	return nil
}

func (w *Worker) publish(ctx context.Context, userID, eventStatus, message string) {
	event := broadcast.Event{
		Status:    eventStatus,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := w.publisher.Publish(ctx, userID, event); err != nil {
		w.logger.LogWarn("Failed to publish progress event", map[string]interface{}{
			"status": eventStatus,
			"error":  err.Error(),
		})
	}
}
