package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/schemaflow/schemaflow/internal/logger"
)

// ManagerConfig holds the worker pool configuration
type ManagerConfig struct {
	Topic        string
	Subscription string
	Workers      int
	MaxAttempts  int
}

// Manager runs a pool of batch workers over a shared Pulsar
// subscription. Each delivery is handled by Worker.ProcessJob; a
// retryable failure is negatively acknowledged so the broker redelivers
// it, and messages that exhaust redeliveries land on the dead letter
// topic as a backstop.
type Manager struct {
	client   pulsar.Client
	config   ManagerConfig
	worker   *Worker
	logger   logger.Logger
	consumer pulsar.Consumer
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mutex    sync.Mutex
}

// NewManager creates a worker pool manager
func NewManager(client pulsar.Client, config ManagerConfig, worker *Worker, log logger.Logger) *Manager {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Manager{
		client: client,
		config: config,
		worker: worker,
		logger: log,
	}
}

// Start subscribes to the batch topic and launches the worker pool
func (m *Manager) Start(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.running {
		return fmt.Errorf("worker manager already running")
	}

	runCtx, cancel := context.WithCancel(ctx)

	consumer, err := m.client.Subscribe(pulsar.ConsumerOptions{
		Topic:            m.config.Topic,
		SubscriptionName: m.config.Subscription,
		Type:             pulsar.Shared,
		DLQ: &pulsar.DLQPolicy{
			MaxDeliveries:   uint32(m.config.MaxAttempts + 1),
			DeadLetterTopic: m.config.Topic + "-dlq",
		},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to batch topic: %w", err)
	}

	m.consumer = consumer
	m.cancel = cancel
	m.running = true

	for i := 0; i < m.config.Workers; i++ {
		m.wg.Add(1)
		go m.consumeLoop(runCtx)
	}

	m.logger.LogInfo("Batch worker pool started", map[string]interface{}{
		"topic":        m.config.Topic,
		"subscription": m.config.Subscription,
		"workers":      m.config.Workers,
	})
	return nil
}

// Stop shuts the pool down and closes the subscription
func (m *Manager) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.running {
		return nil
	}

	m.cancel()
	m.wg.Wait()
	m.consumer.Close()
	m.running = false

	m.logger.LogInfo("Batch worker pool stopped", nil)
	return nil
}

func (m *Manager) consumeLoop(ctx context.Context) {
	defer m.wg.Done()

	for {
		msg, err := m.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.LogError(err, "failed to receive batch job")
			continue
		}

		var job BatchJob
		if err := json.Unmarshal(msg.Payload(), &job); err != nil {
			m.logger.LogError(err, "discarding undecodable batch job")
			m.consumer.Ack(msg)
			continue
		}

		attempt := int(msg.RedeliveryCount()) + 1
		if err := m.worker.ProcessJob(ctx, job, attempt); err != nil {
			m.consumer.Nack(msg)
			continue
		}
		m.consumer.Ack(msg)
	}
}
