package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/apply"
	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/config"
	"github.com/schemaflow/schemaflow/internal/logger"
	"github.com/schemaflow/schemaflow/internal/migration"
	"github.com/schemaflow/schemaflow/internal/queue"
	"github.com/schemaflow/schemaflow/internal/status"
)

// The worker process consumes batch jobs from the queue and applies
// schema fragments to target databases. It shares the status store,
// the migration-record database and the progress channel with the API
// process but runs and scales independently.
func main() {
	loggerService, err := logger.NewService(&logger.Config{Level: "debug"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	configService := config.NewConfigService(loggerService)
	cfg, err := configService.Load(".")
	if err != nil {
		loggerService.LogFatal(err, "Failed to load configuration")
	}

	loggerService, err = logger.NewService(&cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := openDatabase(&cfg.Database)
	if err != nil {
		loggerService.LogFatal(err, "Failed to setup database")
	}

	cache := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cache.Ping(pingCtx).Err(); err != nil {
		cancelPing()
		loggerService.LogFatal(err, "Failed to connect to Redis")
	}
	cancelPing()

	pulsarClient, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: cfg.Pulsar.URL,
	})
	if err != nil {
		loggerService.LogFatal(err, "Failed to connect to Pulsar")
	}

	worker := queue.NewWorker(
		status.NewRedisService(cache),
		broadcast.NewRedisBroadcaster(cache, loggerService),
		apply.NewSQLApplier(loggerService),
		migration.NewRepository(db),
		loggerService,
		cfg.Pulsar.MaxAttempts,
	)
	manager := queue.NewManager(pulsarClient, queue.ManagerConfig{
		Topic:        cfg.Pulsar.Topic,
		Subscription: cfg.Pulsar.Subscription,
		Workers:      cfg.Pulsar.Workers,
		MaxAttempts:  cfg.Pulsar.MaxAttempts,
	}, worker, loggerService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		loggerService.LogFatal(err, "Failed to start batch consumers")
	}
	loggerService.LogInfo("Batch worker pool started", map[string]interface{}{
		"workers": cfg.Pulsar.Workers,
		"topic":   cfg.Pulsar.Topic,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	loggerService.LogInfo("Received shutdown signal", nil)

	cancel()
	if err := manager.Stop(); err != nil {
		loggerService.LogWarn("Error stopping batch consumers", map[string]interface{}{
			"error": err.Error(),
		})
	}
	pulsarClient.Close()
	if err := cache.Close(); err != nil {
		loggerService.LogWarn("Error closing Redis connections", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	loggerService.LogInfo("Worker shutdown complete", nil)
}

func openDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Dbname, cfg.Port, cfg.Sslmode, cfg.Timezone)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return db, nil
}
