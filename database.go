package main

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/config"
	"github.com/schemaflow/schemaflow/internal/migration"
)

// initDatabase opens the migration-record database and ensures the
// schema is up to date.
func initDatabase(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Dbname, cfg.Port, cfg.Sslmode, cfg.Timezone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying database: %v", err)
	}
	if cfg.Pool.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpen)
	}
	if cfg.Pool.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdle)
	}

	if err := db.AutoMigrate(&migration.Migration{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %v", err)
	}

	return db, nil
}
