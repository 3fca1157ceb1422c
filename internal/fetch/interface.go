package fetch

import "context"

// Fetcher extracts a normalized schema description from a source
// database. Implementations are read-only against the source.
type Fetcher interface {
	Fetch(ctx context.Context, descriptor string) (string, error)
}

// Logger defines the logging interface used by the fetch package
type Logger interface {
	LogInfo(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
}
