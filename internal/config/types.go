package config

import (
	"time"

	"github.com/schemaflow/schemaflow/internal/logger"
)

// Config represents the application configuration
type Config struct {
	Environment string          `mapstructure:"environment" yaml:"environment"`
	Server      ServerConfig    `mapstructure:"server" yaml:"server"`
	Database    DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Redis       RedisConfig     `mapstructure:"redis" yaml:"redis"`
	Snapshot    SnapshotConfig  `mapstructure:"snapshot" yaml:"snapshot"`
	Pulsar      PulsarConfig    `mapstructure:"pulsar" yaml:"pulsar"`
	Corrector   CorrectorConfig `mapstructure:"corrector" yaml:"corrector"`
	Migration   MigrationConfig `mapstructure:"migration" yaml:"migration"`
	Logging     logger.Config   `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig represents HTTP server configuration settings
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DatabaseConfig represents the migration-record database settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Dbname   string `mapstructure:"dbname"`
	Port     int    `mapstructure:"port"`
	Sslmode  string `mapstructure:"sslmode"`
	Timezone string `mapstructure:"timezone"`
	Pool     struct {
		MaxOpen int `mapstructure:"maxOpen"`
		MaxIdle int `mapstructure:"maxIdle"`
	} `mapstructure:"pool"`
}

// RedisConfig represents Redis configuration settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SnapshotConfig represents the snapshot object-store settings
type SnapshotConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	UseSSL          bool   `mapstructure:"useSSL"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
}

// PulsarConfig represents the batch job queue settings
type PulsarConfig struct {
	URL          string        `mapstructure:"url"`
	Topic        string        `mapstructure:"topic"`
	Subscription string        `mapstructure:"subscription"`
	Workers      int           `mapstructure:"workers"`
	MaxAttempts  int           `mapstructure:"maxAttempts"`
	SendTimeout  time.Duration `mapstructure:"sendTimeout"`
}

// CorrectorConfig represents the external schema correction service settings
type CorrectorConfig struct {
	URL                string        `mapstructure:"url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	FallbackToOriginal bool          `mapstructure:"fallbackToOriginal"`
}

// MigrationConfig represents migration pipeline settings
type MigrationConfig struct {
	BatchSize int `mapstructure:"batchSize"`
}
