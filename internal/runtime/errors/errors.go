package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrConfigRequired     = sterrors.New("schemabus: configuration is required")
	ErrLoggerRequired     = sterrors.New("schemabus: logger is required")
	ErrRegistryRequired   = sterrors.New("schemabus: schema registry is required")
	ErrHandlerRequired    = sterrors.New("schemabus: handler function is required")
	ErrQueueURLRequired   = sterrors.New("schemabus: queue URL is required")
	ErrSchemaNameRequired = sterrors.New("schemabus: schema name is required")
	ErrEventBusRequired   = sterrors.New("schemabus: event bus name is required")
	ErrDetailRequired     = sterrors.New("schemabus: event detail is required")
	ErrAlreadyRunning     = sterrors.New("schemabus: consumer is already running")
)

// ConfigValidationError wraps the failure returned by Config.Validate so
// callers can distinguish configuration problems from runtime failures.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("schemabus: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error { return e.Err }

// NewConfigValidationError wraps err in a ConfigValidationError. Returns nil
// when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
