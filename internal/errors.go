package internal

import "fmt"

// APIError represents a failed request: either a non-2xx response or a
// transport failure normalized by the caller. Message is the user-facing
// string extracted from the response body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// SettingsError represents errors accessing the settings database
type SettingsError struct {
	Op  string // "open", "migrate", "write", "delete"
	Key string
	Err error
}

func (e *SettingsError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("settings error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("settings error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *SettingsError) Unwrap() error {
	return e.Err
}

// ValidationError represents a rejected local input, raised before any
// request is issued
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s]: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// errValidation builds a ValidationError from a message
func errValidation(message string) error {
	return &ValidationError{Message: message}
}
