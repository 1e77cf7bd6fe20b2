// Package sourceenv layers process environment variables over loaded env files.
//
// Keys are kept verbatim; an optional prefix filters variables and can be
// stripped before they reach the Reader.
//
// Example:
//
//	reader, err := dotenv.NewLoader().
//	    AddEnvFiles(".env").
//	    WithSource(sourceenv.New(sourceenv.Options{Prefix: "APP_", TrimPrefix: true})).
//	    Load(ctx)
package sourceenv
