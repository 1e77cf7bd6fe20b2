package dotenv

import (
	"path/filepath"
)

const (
	// DefaultEnvFileName is the file loaded when no explicit paths are given.
	DefaultEnvFileName = ".env"

	// DefaultEnvironmentName is used when neither Name nor Current is set.
	DefaultEnvironmentName = "development"

	// TestEnvironmentName disables the machine-specific .env.local overlay.
	TestEnvironmentName = "test"
)

// Environment describes convention-based file resolution.
//
// Current stands in for a process-wide "current environment": it is only
// consulted when Name is empty, and it lives on the value passed to the
// loader rather than in package state.
type Environment struct {
	BasePath string // Directory holding the files; "." when empty
	Name     string // Explicit environment name (e.g., "dev", "production")
	Current  string // Fallback environment name
}

// EffectiveName returns Name, then Current, then DefaultEnvironmentName.
func (e Environment) EffectiveName() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.Current != "":
		return e.Current
	default:
		return DefaultEnvironmentName
	}
}

// Files returns the overlay in application order:
//
//	{BasePath}/.env
//	{BasePath}/.env.{name}
//	{BasePath}/.env.local            (omitted for the "test" environment)
//	{BasePath}/.env.{name}.local
func (e Environment) Files() []FileSpec {
	base := e.BasePath
	if base == "" {
		base = "."
	}
	name := e.EffectiveName()

	names := []string{
		DefaultEnvFileName,
		DefaultEnvFileName + "." + name,
	}
	if name != TestEnvironmentName {
		names = append(names, DefaultEnvFileName+".local")
	}
	names = append(names, DefaultEnvFileName+"."+name+".local")

	specs := make([]FileSpec, 0, len(names))
	for i, n := range names {
		specs = append(specs, FileSpec{
			Path:     filepath.Join(base, n),
			Priority: i,
		})
	}
	return specs
}
