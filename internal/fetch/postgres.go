package fetch

import (
	"context"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/apperror"
	"github.com/schemaflow/schemaflow/internal/schema"
)

const postgresColumnQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

// PostgresFetcher extracts a schema via information_schema catalog
// introspection.
type PostgresFetcher struct {
	logger Logger
}

// NewPostgresFetcher creates a new PostgreSQL schema fetcher
func NewPostgresFetcher(logger Logger) *PostgresFetcher {
	return &PostgresFetcher{logger: logger}
}

type catalogColumn struct {
	TableName  string `gorm:"column:table_name"`
	ColumnName string `gorm:"column:column_name"`
	DataType   string `gorm:"column:data_type"`
}

func (f *PostgresFetcher) Fetch(ctx context.Context, descriptor string) (string, error) {
	dsn := normalizePostgresDSN(descriptor)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return "", apperror.NewExtractionError("failed to connect to source database", err)
	}
	defer closeGorm(db)

	var rows []catalogColumn
	if err := db.WithContext(ctx).Raw(postgresColumnQuery).Scan(&rows).Error; err != nil {
		return "", apperror.NewExtractionError("failed to read source catalog", err)
	}

	columns := make([]schema.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, schema.Column{
			Table:    row.TableName,
			Name:     row.ColumnName,
			DataType: row.DataType,
		})
	}

	f.logger.LogInfo("Extracted source schema", map[string]interface{}{
		"engine":  "postgres",
		"columns": len(columns),
	})
	return schema.Format(columns), nil
}

// normalizePostgresDSN rewrites shorthand schemes (pg://) to the
// canonical postgres:// form the driver understands.
func normalizePostgresDSN(descriptor string) string {
	if strings.HasPrefix(descriptor, "pg://") {
		return "postgres://" + strings.TrimPrefix(descriptor, "pg://")
	}
	if strings.HasPrefix(descriptor, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(descriptor, "postgresql://")
	}
	return descriptor
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
