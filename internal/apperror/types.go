package apperror

// ValidationError represents a rejected request input
type ValidationError struct {
	Field   string
	Message string
}

// ExtractionError represents a failure reading the source schema
type ExtractionError struct {
	Message string
	Cause   error
}

// UnsupportedEngineError represents a source or target engine with no
// registered capability
type UnsupportedEngineError struct {
	Engine string
}

// CorrectionError represents a failed schema correction call
type CorrectionError struct {
	Message string
	Cause   error
}

// ApplyError represents a failure applying a schema batch to the target
type ApplyError struct {
	Message string
	Cause   error
}

// NotFoundError represents a lookup of an unknown migration
type NotFoundError struct {
	Resource string
	ID       string
}

// RollbackError represents a rollback that could not be performed
type RollbackError struct {
	Message string
	Cause   error
}
