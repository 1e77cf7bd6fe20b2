package dotenv

import (
	"fmt"
	"strings"
)

// Error codes for validation failures.
const (
	ErrCodeRequired   = "required"
	ErrCodeMin        = "min"
	ErrCodeMax        = "max"
	ErrCodeOneOf      = "oneof"
	ErrCodeUnknownKey = "unknown_key"
)

// ConfigurationError reports an invalid setup argument. It is returned before
// any file is read.
type ConfigurationError struct {
	Op  string // Operation that rejected the argument (e.g., "AddEnvFiles")
	Arg string // Argument name (e.g., "paths")
	Msg string
}

func (e *ConfigurationError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("dotenv: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("dotenv: %s: %s %s", e.Op, e.Arg, e.Msg)
}

// ParseError reports malformed content in an env file.
type ParseError struct {
	File string // Path as given to the loader
	Line int    // 1-based line number, 0 if unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("dotenv: parse %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("dotenv: parse %s:%d: %v", e.File, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BindingError reports a value that could not be converted to its field's type.
type BindingError struct {
	Field string // Dot notation (e.g., "Database.Port")
	Key   string // Key the raw value was read from; empty for tag defaults
	Value string // Raw value
	Type  string // Target Go type
	Err   error
}

func (e *BindingError) Error() string {
	from := "default"
	if e.Key != "" {
		from = e.Key
	}
	return fmt.Sprintf("dotenv: bind %s: cannot convert %q (from %s) to %s: %v", e.Field, e.Value, from, e.Type, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// ValidationError aggregates field-level validation failures.
type ValidationError struct {
	FieldErrors []FieldError
}

// Error formats validation errors as a multi-line message.
func (e *ValidationError) Error() string {
	if len(e.FieldErrors) == 0 {
		return "settings validation failed: no errors"
	}

	var b strings.Builder
	if len(e.FieldErrors) == 1 {
		b.WriteString("settings validation failed: 1 error\n")
	} else {
		fmt.Fprintf(&b, "settings validation failed: %d errors\n", len(e.FieldErrors))
	}

	for _, fe := range e.FieldErrors {
		fmt.Fprintf(&b, "  - %s: %s (%s)\n", fe.FieldPath, fe.Code, fe.Message)
	}

	return strings.TrimRight(b.String(), "\n")
}

// FieldError represents a single field validation failure.
type FieldError struct {
	FieldPath string // Dot notation (e.g., "Database.Host"), or the key for unknown keys
	Code      string // Error code (e.g., "required", "min")
	Message   string // Human-readable description
}

func configError(op, arg, msg string) *ConfigurationError {
	return &ConfigurationError{Op: op, Arg: arg, Msg: msg}
}
