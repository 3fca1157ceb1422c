package main

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/apply"
	"github.com/schemaflow/schemaflow/internal/broadcast"
	"github.com/schemaflow/schemaflow/internal/config"
	"github.com/schemaflow/schemaflow/internal/correct"
	"github.com/schemaflow/schemaflow/internal/fetch"
	"github.com/schemaflow/schemaflow/internal/httpapi"
	"github.com/schemaflow/schemaflow/internal/logger"
	"github.com/schemaflow/schemaflow/internal/migration"
	"github.com/schemaflow/schemaflow/internal/queue"
	"github.com/schemaflow/schemaflow/internal/snapshot"
	"github.com/schemaflow/schemaflow/internal/status"
)

// App holds all application dependencies
type App struct {
	ctx       context.Context
	Config    *config.Config
	db        *gorm.DB
	cache     *redis.Client
	pulsar    pulsar.Client
	producer  queue.Producer
	router    *gin.Engine
	service   *migration.Service
	handler   *migration.Handler
	responses httpapi.ResponseHandler
	logger    logger.Logger
}

// NewApp creates a new application instance with all dependencies
func NewApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	db, err := initDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %v", err)
	}

	cache, err := initRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to setup Redis: %v", err)
	}

	snapshots, err := snapshot.NewService(ctx, &cfg.Snapshot, log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup snapshot store: %v", err)
	}

	pulsarClient, err := pulsar.NewClient(pulsar.ClientOptions{
		URL: cfg.Pulsar.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Pulsar: %v", err)
	}
	producer, err := queue.NewPulsarProducer(pulsarClient, cfg.Pulsar.Topic, cfg.Pulsar.SendTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch producer: %v", err)
	}

	registry := fetch.NewRegistry()
	registry.Register(fetch.NewPostgresFetcher(log), "postgres", "postgresql", "pg")
	registry.Register(fetch.NewMySQLFetcher(log), "mysql")
	registry.Register(fetch.NewMongoFetcher(log), "mongodb", "mongodb+srv")

	corrector := correct.NewClient(&correct.Config{
		URL:     cfg.Corrector.URL,
		Timeout: cfg.Corrector.Timeout,
	}, log)

	statusService := status.NewRedisService(cache)
	broadcaster := broadcast.NewRedisBroadcaster(cache, log)
	applier := apply.NewSQLApplier(log)
	store := migration.NewRepository(db)

	service := migration.NewService(
		store, statusService, snapshots, registry, corrector,
		producer, broadcaster, applier,
		&migration.Config{
			BatchSize:          cfg.Migration.BatchSize,
			FallbackToOriginal: cfg.Corrector.FallbackToOriginal,
		}, log,
	)

	responses := httpapi.NewResponseHandler(log)
	handler := migration.NewHandler(service, broadcaster, responses, log)

	app := &App{
		ctx:       ctx,
		Config:    cfg,
		db:        db,
		cache:     cache,
		pulsar:    pulsarClient,
		producer:  producer,
		service:   service,
		handler:   handler,
		responses: responses,
		logger:    log,
	}
	app.setupRoutes()

	return app, nil
}

func (a *App) setupRoutes() {
	if a.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestIDMiddleware())

	router.GET("/health", a.handleHealthCheck)

	a.handler.RegisterRoutes(router, httpapi.IdentityMiddleware(a.responses))

	a.router = router
}

func (a *App) handleHealthCheck(c *gin.Context) {
	a.responses.SuccessResponse(c, gin.H{"status": "ok"}, "Service healthy")
}

// Run starts the application
func (a *App) Run() error {
	port := a.Config.Server.Port
	a.logger.LogInfo(fmt.Sprintf("Starting server on port %d", port), nil)
	if err := a.router.Run(fmt.Sprintf(":%d", port)); err != nil {
		return a.logger.LogError(err, "server failed to start")
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	a.logger.LogInfo("Initiating graceful shutdown", nil)

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.LogWarn("Error closing batch producer", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	if a.pulsar != nil {
		a.pulsar.Close()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.LogWarn("Error closing Redis connections", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if a.db != nil {
		sqlDB, err := a.db.DB()
		if err != nil {
			a.logger.LogWarn("Error getting underlying database instance", map[string]interface{}{
				"error": err.Error(),
			})
		} else if err := sqlDB.Close(); err != nil {
			a.logger.LogWarn("Error closing database connections", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	a.logger.LogInfo("Application shutdown complete", nil)
	return nil
}
