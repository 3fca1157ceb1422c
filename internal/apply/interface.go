package apply

import "context"

// Applier applies a schema fragment to a target database. It is the
// single capability shared by batch workers and rollback; statements in
// a fragment must be independently applicable because batch order
// across workers is not guaranteed.
type Applier interface {
	Apply(ctx context.Context, targetDescriptor, schemaText string) error
}

// Logger defines the logging interface used by the apply package
type Logger interface {
	LogInfo(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
}
