package apply

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/schemaflow/schemaflow/internal/apperror"
)

// SQLApplier executes schema statements against a relational target.
// The dialect is chosen from the target descriptor scheme.
type SQLApplier struct {
	logger Logger
}

// NewSQLApplier creates a new SQL apply capability
func NewSQLApplier(logger Logger) *SQLApplier {
	return &SQLApplier{logger: logger}
}

// Apply opens the target and executes each statement of the fragment.
// Statements are split on semicolons; blank fragments and comment-only
// lines are skipped.
func (a *SQLApplier) Apply(ctx context.Context, targetDescriptor, schemaText string) error {
	dialector, err := dialectorFor(targetDescriptor)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return apperror.NewApplyError("failed to connect to target database", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	statements := SplitStatements(schemaText)
	for _, statement := range statements {
		if err := db.WithContext(ctx).Exec(statement).Error; err != nil {
			return apperror.NewApplyError(fmt.Sprintf("failed to apply statement %q", truncate(statement, 80)), err)
		}
	}

	a.logger.LogInfo("Applied schema fragment to target", map[string]interface{}{
		"statements": len(statements),
	})
	return nil
}

func dialectorFor(descriptor string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(descriptor, "postgres://"), strings.HasPrefix(descriptor, "postgresql://"), strings.HasPrefix(descriptor, "pg://"):
		dsn := descriptor
		if strings.HasPrefix(dsn, "pg://") {
			dsn = "postgres://" + strings.TrimPrefix(dsn, "pg://")
		}
		return postgres.Open(dsn), nil
	case strings.HasPrefix(descriptor, "mysql://"):
		dsn, err := mysqlDSN(descriptor)
		if err != nil {
			return nil, apperror.NewApplyError("invalid mysql descriptor", err)
		}
		return mysql.Open(dsn), nil
	default:
		scheme := descriptor
		if idx := strings.Index(descriptor, "://"); idx >= 0 {
			scheme = descriptor[:idx]
		}
		return nil, apperror.NewUnsupportedEngineError(scheme)
	}
}

// mysqlDSN converts a mysql:// URL into the go-sql-driver DSN form.
func mysqlDSN(descriptor string) (string, error) {
	u, err := url.Parse(descriptor)
	if err != nil {
		return "", err
	}

	creds := ""
	if u.User != nil {
		creds = u.User.Username()
		if password, ok := u.User.Password(); ok {
			creds = fmt.Sprintf("%s:%s", creds, password)
		}
		creds += "@"
	}

	host := u.Host
	if !strings.Contains(host, ":") {
		host += ":3306"
	}

	return fmt.Sprintf("%stcp(%s)/%s", creds, host, strings.TrimPrefix(u.Path, "/")), nil
}

// SplitStatements separates a schema fragment into executable
// statements, dropping empties and comment lines. A statement preceded
// by comment lines keeps its executable part.
func SplitStatements(schemaText string) []string {
	statements := make([]string, 0)
	for _, candidate := range strings.Split(schemaText, ";") {
		statement := stripLeadingComments(candidate)
		if statement == "" {
			continue
		}
		statements = append(statements, statement)
	}
	return statements
}

func stripLeadingComments(candidate string) string {
	lines := strings.Split(candidate, "\n")
	start := 0
	for start < len(lines) {
		line := strings.TrimSpace(lines[start])
		if line != "" && !strings.HasPrefix(line, "--") {
			break
		}
		start++
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
