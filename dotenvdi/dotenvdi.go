// Package dotenvdi registers loaded env files and bound settings in a
// github.com/samber/do injector.
//
//	injector := do.New()
//	settings, err := dotenvdi.AddDotEnvSettings[AppSettings](injector, "config.env")
//	...
//	settings = do.MustInvoke[*AppSettings](injector)
//
// Every function returns a *dotenv.ConfigurationError for a nil injector, an
// empty path or a type that is already registered, before any file is read.
package dotenvdi

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/do"

	"github.com/Azhovan/dotenv"
)

// AddDotEnv loads paths (".env" when none) and registers the *dotenv.Reader.
func AddDotEnv(i *do.Injector, paths ...string) (*dotenv.Reader, error) {
	if len(paths) == 0 {
		paths = []string{dotenv.DefaultEnvFileName}
	}
	return AddDotEnvFiles(i, paths)
}

// AddDotEnvFiles loads paths and registers the *dotenv.Reader.
// An empty list is a ConfigurationError.
func AddDotEnvFiles(i *do.Injector, paths []string) (*dotenv.Reader, error) {
	if err := checkInjector[*dotenv.Reader]("AddDotEnvFiles", i); err != nil {
		return nil, err
	}

	loader := dotenv.NewLoader().AddEnvFiles(paths...)
	reader, err := loader.Load(context.Background())
	if err != nil {
		return nil, err
	}

	do.ProvideValue(i, reader)
	return reader, nil
}

// AddDotEnvSettings loads paths (".env" when none), binds them onto a new *T
// and registers it.
func AddDotEnvSettings[T any](i *do.Injector, paths ...string) (*T, error) {
	if err := checkInjector[*T]("AddDotEnvSettings", i); err != nil {
		return nil, err
	}

	settings, err := dotenv.LoadSettings[T](context.Background(), paths...)
	if err != nil {
		return nil, err
	}

	do.ProvideValue(i, settings)
	return settings, nil
}

// AddCustomEnv loads the environment overlay of basePath and environmentName
// and registers the *dotenv.Reader. Empty arguments fall back to the
// loader defaults.
func AddCustomEnv(i *do.Injector, basePath, environmentName string) (*dotenv.Reader, error) {
	if err := checkInjector[*dotenv.Reader]("AddCustomEnv", i); err != nil {
		return nil, err
	}

	reader, err := dotenv.LoadCustomEnv(context.Background(), basePath, environmentName)
	if err != nil {
		return nil, err
	}

	do.ProvideValue(i, reader)
	return reader, nil
}

// AddCustomEnvSettings loads the environment overlay, binds it onto a new *T
// and registers it.
func AddCustomEnvSettings[T any](i *do.Injector, basePath, environmentName string) (*T, error) {
	if err := checkInjector[*T]("AddCustomEnvSettings", i); err != nil {
		return nil, err
	}

	settings, err := dotenv.LoadCustomEnvSettings[T](context.Background(), basePath, environmentName)
	if err != nil {
		return nil, err
	}

	do.ProvideValue(i, settings)
	return settings, nil
}

// checkInjector rejects a nil injector and a service type that is already
// declared, where do.ProvideValue would panic. Declared services are looked
// up by name so lazy providers are never invoked.
func checkInjector[S any](op string, i *do.Injector) error {
	if i == nil {
		return &dotenv.ConfigurationError{Op: op, Arg: "injector", Msg: "must not be nil"}
	}

	// do names a service after %T of its zero value.
	var zero S
	name := fmt.Sprintf("%T", zero)
	if slices.Contains(i.ListProvidedServices(), name) {
		return &dotenv.ConfigurationError{Op: op, Arg: "injector", Msg: "already provides " + name}
	}
	return nil
}
