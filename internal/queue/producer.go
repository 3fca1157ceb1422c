package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/schemaflow/schemaflow/internal/logger"
)

// Producer enqueues batch jobs for the worker pool
type Producer interface {
	Enqueue(ctx context.Context, job BatchJob) error
	Close() error
}

// PulsarProducer implements Producer on a Pulsar topic
type PulsarProducer struct {
	producer pulsar.Producer
	logger   logger.Logger
}

// NewPulsarProducer creates a producer for the batch topic
func NewPulsarProducer(client pulsar.Client, topic string, sendTimeout time.Duration, log logger.Logger) (*PulsarProducer, error) {
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{
		Topic:       topic,
		SendTimeout: sendTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch producer: %w", err)
	}

	return &PulsarProducer{
		producer: producer,
		logger:   log,
	}, nil
}

// Enqueue publishes one job per batch. The migration id keys the
// message so per-migration ordering is preserved on the topic, though
// workers may still complete batches out of order.
func (p *PulsarProducer) Enqueue(ctx context.Context, job BatchJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode batch job: %w", err)
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Payload: payload,
		Key:     job.MigrationID,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue batch job: %w", err)
	}

	p.logger.LogDebug("Batch job enqueued", map[string]interface{}{
		"migrationId": job.MigrationID,
		"sequence":    job.Batch.Sequence,
	})
	return nil
}

// Close closes the producer and releases resources
func (p *PulsarProducer) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}
