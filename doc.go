// Package dotenv loads .env files into an immutable Reader and binds them onto typed settings.
//
// Quick Start:
//
//	type Settings struct {
//	    Summaries string
//	    Port      int    `conf:"default:8080,min:1024"`
//	    APIKey    string `conf:"required,secret"`
//	}
//
//	reader, err := dotenv.NewLoader().
//	    SetBasePath("config").
//	    SetEnvironmentName("production").
//	    LoadEnv(context.Background())
//
//	settings, err := dotenv.Bind[Settings](reader)
//
// LoadEnv reads .env, .env.{name}, .env.local and .env.{name}.local from the
// base path, later files overriding earlier ones. Load reads an explicit list
// instead. Fields bind from the SCREAMING_SNAKE_CASE form of their name
// (APIKey from API_KEY), case-insensitively.
//
// Tag directives: env:KEY, default:val, required, min:N, max:N, oneof:a,b,c, secret, prefix:KEY
//
// See example_test.go for detailed usage.
package dotenv
