package correct

import "context"

// Result is the outcome of a correction call. Success false carries the
// service-reported reason; callers decide whether to fall back to the
// original schema.
type Result struct {
	Success         bool   `json:"success"`
	CorrectedSchema string `json:"correctedSchema,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Corrector adapts a schema description for a target engine. The
// service is external and best-effort: implementations must bound the
// call with a timeout and must not retry.
type Corrector interface {
	Correct(ctx context.Context, schemaText, targetEngine string) (Result, error)
}

// Logger defines the logging interface used by the correct package
type Logger interface {
	LogInfo(msg string, fields map[string]interface{})
	LogWarn(msg string, fields map[string]interface{})
	LogError(err error, msg string) error
}
