package dotenv

import (
	"context"
)

// Source provides key/value pairs layered on top of the loaded env files
// (e.g., the process environment). Keys are used verbatim.
type Source interface {
	// Name identifies the source in provenance (e.g., "env").
	Name() string

	// Load returns the source's pairs. Missing optional data should return an empty map.
	Load(ctx context.Context) (map[string]string, error)
}

// FileSpec is a candidate env file. Files are applied in ascending Priority;
// later files override earlier ones key by key.
type FileSpec struct {
	Path     string
	Priority int
}

// Optional distinguishes "not set" from "zero value".
type Optional[T any] struct {
	Value T
	Set   bool
}

// Get returns the wrapped value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// OrDefault returns the wrapped value or the provided default.
func (o Optional[T]) OrDefault(defaultVal T) T {
	if o.Set {
		return o.Value
	}
	return defaultVal
}

// Validator performs custom validation after tag-based validation.
// Use for cross-field or semantic checks.
type Validator[T any] interface {
	// Validate checks settings. Return *ValidationError for field-level errors.
	Validate(ctx context.Context, cfg *T) error
}

// ValidatorFunc is a function adapter for Validator interface.
type ValidatorFunc[T any] func(ctx context.Context, cfg *T) error

func (f ValidatorFunc[T]) Validate(ctx context.Context, cfg *T) error {
	return f(ctx, cfg)
}
