package dotenv

import (
	"context"
)

// LoadDotEnv loads paths (DefaultEnvFileName when none) into a Reader.
// An empty path is a ConfigurationError.
func LoadDotEnv(ctx context.Context, paths ...string) (*Reader, error) {
	loader := NewLoader()
	if len(paths) > 0 {
		loader.AddEnvFiles(paths...)
	}
	return loader.Load(ctx)
}

// LoadSettings loads paths (DefaultEnvFileName when none) and binds them onto a new *T.
func LoadSettings[T any](ctx context.Context, paths ...string) (*T, error) {
	reader, err := LoadDotEnv(ctx, paths...)
	if err != nil {
		return nil, err
	}
	return NewBinder[T]().Bind(ctx, reader)
}

// LoadCustomEnv loads the environment overlay. Empty arguments fall back to
// the defaults (current directory, DefaultEnvironmentName).
func LoadCustomEnv(ctx context.Context, basePath, environmentName string) (*Reader, error) {
	return CustomEnvLoader(basePath, environmentName).LoadEnv(ctx)
}

// LoadCustomEnvSettings loads the environment overlay and binds it onto a new *T.
func LoadCustomEnvSettings[T any](ctx context.Context, basePath, environmentName string) (*T, error) {
	reader, err := LoadCustomEnv(ctx, basePath, environmentName)
	if err != nil {
		return nil, err
	}
	return NewBinder[T]().Bind(ctx, reader)
}

// CustomEnvLoader returns a Loader for the overlay of basePath and
// environmentName, treating empty arguments as "not supplied".
func CustomEnvLoader(basePath, environmentName string) *Loader {
	loader := NewLoader()
	if basePath != "" {
		loader.SetBasePath(basePath)
	}
	if environmentName != "" {
		loader.SetEnvironmentName(environmentName)
	}
	return loader
}
