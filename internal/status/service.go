package status

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisService implements the Service interface using Redis. The batch
// map is a Redis hash, so each batch entry is written with a single
// HSET and concurrent workers never clobber each other's updates.
type RedisService struct {
	client *redis.Client
}

// NewRedisService creates a new Redis-backed status store
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

func migrationKey(id string) string { return fmt.Sprintf("migration:%s", id) }
func batchesKey(id string) string   { return fmt.Sprintf("migration:%s:batches", id) }
func cancelKey(id string) string    { return fmt.Sprintf("migration:%s:cancelled", id) }
func finalizedKey(id string) string { return fmt.Sprintf("migration:%s:finalized", id) }
func rollbackKey(id string) string  { return fmt.Sprintf("rollback:%s", id) }

// SetStatus writes the migration lifecycle status
func (s *RedisService) SetStatus(ctx context.Context, migrationID, status string) error {
	return s.client.Set(ctx, migrationKey(migrationID), status, 0).Err()
}

// GetStatus reads the migration lifecycle status
func (s *RedisService) GetStatus(ctx context.Context, migrationID string) (string, error) {
	value, err := s.client.Get(ctx, migrationKey(migrationID)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// InitBatches seeds the batch map with pending entries 1..count
func (s *RedisService) InitBatches(ctx context.Context, migrationID string, count int) error {
	if count == 0 {
		return nil
	}
	fields := make([]interface{}, 0, count*2)
	for seq := 1; seq <= count; seq++ {
		fields = append(fields, strconv.Itoa(seq), BatchPending)
	}
	return s.client.HSet(ctx, batchesKey(migrationID), fields...).Err()
}

// SetBatchStatus atomically updates a single batch entry
func (s *RedisService) SetBatchStatus(ctx context.Context, migrationID string, sequence int, status string) error {
	return s.client.HSet(ctx, batchesKey(migrationID), strconv.Itoa(sequence), status).Err()
}

// GetBatchStatus reads a single batch entry
func (s *RedisService) GetBatchStatus(ctx context.Context, migrationID string, sequence int) (string, error) {
	value, err := s.client.HGet(ctx, batchesKey(migrationID), strconv.Itoa(sequence)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// BatchStatuses returns the full batch map
func (s *RedisService) BatchStatuses(ctx context.Context, migrationID string) (map[int]string, error) {
	entries, err := s.client.HGetAll(ctx, batchesKey(migrationID)).Result()
	if err != nil {
		return nil, err
	}
	statuses := make(map[int]string, len(entries))
	for field, value := range entries {
		seq, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("corrupt batch map entry %q: %v", field, err)
		}
		statuses[seq] = value
	}
	return statuses, nil
}

// AllBatchesCompleted reports whether every batch entry is completed
func (s *RedisService) AllBatchesCompleted(ctx context.Context, migrationID string) (bool, error) {
	values, err := s.client.HVals(ctx, batchesKey(migrationID)).Result()
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, nil
	}
	for _, value := range values {
		if value != BatchCompleted {
			return false, nil
		}
	}
	return true, nil
}

// MarkCompleted finalizes the migration, reporting whether this call won
// the finalization race. Losing calls must not touch the status record:
// the migration may have moved on (for example to rolled-back) since it
// was first finalized.
func (s *RedisService) MarkCompleted(ctx context.Context, migrationID string) (bool, error) {
	first, err := s.client.SetNX(ctx, finalizedKey(migrationID), "1", 0).Result()
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}
	if err := s.SetStatus(ctx, migrationID, StatusCompleted); err != nil {
		return false, err
	}
	return true, nil
}

// SetRollbackRef records the snapshot reference used for rollback
func (s *RedisService) SetRollbackRef(ctx context.Context, migrationID, ref string) error {
	return s.client.Set(ctx, rollbackKey(migrationID), ref, 0).Err()
}

// GetRollbackRef reads the recorded snapshot reference
func (s *RedisService) GetRollbackRef(ctx context.Context, migrationID string) (string, error) {
	value, err := s.client.Get(ctx, rollbackKey(migrationID)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Cancel sets the cancellation flag checked by workers before applying
func (s *RedisService) Cancel(ctx context.Context, migrationID string) error {
	return s.client.Set(ctx, cancelKey(migrationID), "1", 0).Err()
}

// IsCancelled reads the cancellation flag
func (s *RedisService) IsCancelled(ctx context.Context, migrationID string) (bool, error) {
	_, err := s.client.Get(ctx, cancelKey(migrationID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
