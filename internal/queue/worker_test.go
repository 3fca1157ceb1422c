package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemaflow/schemaflow/internal/schema"
	"github.com/schemaflow/schemaflow/internal/status"
	"github.com/schemaflow/schemaflow/testhelper"
)

type fakeApplier struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeApplier) Apply(ctx context.Context, target, schemaText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, schemaText)
	return f.err
}

func (f *fakeApplier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu        sync.Mutex
	completed []string
	failed    map[string]string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{failed: make(map[string]string)}
}

func (f *fakeRecorder) RecordCompleted(ctx context.Context, migrationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, migrationID)
	return nil
}

func (f *fakeRecorder) RecordFailed(ctx context.Context, migrationID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[migrationID] = message
	return nil
}

func (f *fakeRecorder) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

type workerFixture struct {
	worker    *Worker
	status    *status.RedisService
	publisher *testhelper.RecordingPublisher
	applier   *fakeApplier
	recorder  *fakeRecorder
}

func newWorkerFixture(t *testing.T, maxAttempts int) *workerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	statusSvc := status.NewRedisService(client)
	publisher := testhelper.NewRecordingPublisher()
	applier := &fakeApplier{}
	recorder := newFakeRecorder()

	return &workerFixture{
		worker:    NewWorker(statusSvc, publisher, applier, recorder, testhelper.NewLogger(), maxAttempts),
		status:    statusSvc,
		publisher: publisher,
		applier:   applier,
		recorder:  recorder,
	}
}

func job(migrationID string, seq int) BatchJob {
	return BatchJob{
		UserID:      "u1",
		MigrationID: migrationID,
		Batch:       schema.Batch{Sequence: seq, Content: "CREATE TABLE t (id INT);"},
		TargetDB:    "postgres://target/db",
	}
}

func TestProcessJobAppliesAndCompletesBatch(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 2))

	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 1))

	statuses, err := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.BatchCompleted, statuses[1])
	assert.Equal(t, status.BatchPending, statuses[2])
	assert.Equal(t, []string{"batch-applying", "batch-applied"}, f.publisher.Statuses())
	assert.Zero(t, f.recorder.completedCount())
}

func TestProcessJobFinalizesOnLastBatch(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 2))

	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 1))
	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 2), 1))

	got, err := f.status.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.StatusCompleted, got)
	assert.Equal(t, []string{"m1"}, f.recorder.completed)
	assert.Equal(t,
		[]string{"batch-applying", "batch-applied", "batch-applying", "batch-applied", "completed"},
		f.publisher.Statuses())
}

// Concurrent workers completing the last batches must both record their
// batch and finalize exactly once.
func TestConcurrentWorkersFinalizeOnce(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 2))

	var wg sync.WaitGroup
	wg.Add(2)
	for seq := 1; seq <= 2; seq++ {
		go func(seq int) {
			defer wg.Done()
			assert.NoError(t, f.worker.ProcessJob(ctx, job("m1", seq), 1))
		}(seq)
	}
	wg.Wait()

	statuses, err := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: status.BatchCompleted, 2: status.BatchCompleted}, statuses)
	assert.Equal(t, 1, f.recorder.completedCount())

	completedEvents := 0
	for _, s := range f.publisher.Statuses() {
		if s == "completed" {
			completedEvents++
		}
	}
	assert.Equal(t, 1, completedEvents)
}

func TestProcessJobRetriesTransientApplyFailure(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 1))
	f.applier.err = errors.New("target unavailable")

	err := f.worker.ProcessJob(ctx, job("m1", 1), 1)
	require.Error(t, err)

	// Not yet terminal: batch stays in applying, migration not failed.
	statuses, err2 := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err2)
	assert.Equal(t, status.BatchApplying, statuses[1])
	assert.Empty(t, f.recorder.failed)
}

func TestProcessJobFailsBatchAfterRetriesExhausted(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 1))
	f.applier.err = errors.New("syntax error")

	// Third delivery of the same job.
	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 3))

	statuses, err := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.BatchFailed, statuses[1])

	got, err := f.status.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.StatusFailed, got)
	assert.Contains(t, f.recorder.failed["m1"], "Batch 1 failed")
	assert.Contains(t, f.publisher.Statuses(), "batch-failed")
}

func TestProcessJobDropsCancelledMigration(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 1))
	require.NoError(t, f.status.Cancel(ctx, "m1"))

	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 1))

	assert.Zero(t, f.applier.callCount())
	statuses, err := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.BatchCancelled, statuses[1])
	assert.Equal(t, "Migration cancelled", f.recorder.failed["m1"])
}

// Redelivery of a batch already terminal at failed or cancelled must be
// acknowledged without re-applying it; a failed migration must never be
// flipped to completed by a late duplicate.
func TestProcessJobRedeliveryOfTerminalBatchIsDropped(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 1))
	require.NoError(t, f.status.SetBatchStatus(ctx, "m1", 1, status.BatchFailed))
	require.NoError(t, f.status.SetStatus(ctx, "m1", status.StatusFailed))

	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 2))

	assert.Zero(t, f.applier.callCount())
	statuses, err := f.status.BatchStatuses(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.BatchFailed, statuses[1])

	got, err := f.status.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.StatusFailed, got)
	assert.Zero(t, f.recorder.completedCount())

	require.NoError(t, f.status.SetBatchStatus(ctx, "m1", 1, status.BatchCancelled))
	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 2))
	assert.Zero(t, f.applier.callCount())
}

// Redelivery of an already-completed batch must not corrupt state or
// double-finalize.
func TestProcessJobRedeliveryIsIdempotent(t *testing.T) {
	f := newWorkerFixture(t, 3)
	ctx := context.Background()
	require.NoError(t, f.status.InitBatches(ctx, "m1", 1))

	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 1))
	require.NoError(t, f.worker.ProcessJob(ctx, job("m1", 1), 2))

	assert.Equal(t, 1, f.applier.callCount())
	assert.Equal(t, 1, f.recorder.completedCount())
	got, err := f.status.GetStatus(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, status.StatusCompleted, got)
}
