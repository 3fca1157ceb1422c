package apperror

import "fmt"

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

func (e *UnsupportedEngineError) Error() string {
	return fmt.Sprintf("unsupported database engine: %s", e.Engine)
}

func (e *CorrectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CorrectionError) Unwrap() error { return e.Cause }

func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ApplyError) Unwrap() error { return e.Cause }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *RollbackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RollbackError) Unwrap() error { return e.Cause }

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewExtractionError creates a new ExtractionError
func NewExtractionError(message string, cause error) *ExtractionError {
	return &ExtractionError{Message: message, Cause: cause}
}

// NewUnsupportedEngineError creates a new UnsupportedEngineError
func NewUnsupportedEngineError(engine string) *UnsupportedEngineError {
	return &UnsupportedEngineError{Engine: engine}
}

// NewCorrectionError creates a new CorrectionError
func NewCorrectionError(message string, cause error) *CorrectionError {
	return &CorrectionError{Message: message, Cause: cause}
}

// NewApplyError creates a new ApplyError
func NewApplyError(message string, cause error) *ApplyError {
	return &ApplyError{Message: message, Cause: cause}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// NewRollbackError creates a new RollbackError
func NewRollbackError(message string, cause error) *RollbackError {
	return &RollbackError{Message: message, Cause: cause}
}
