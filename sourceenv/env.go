package sourceenv

import (
	"context"
	"os"
	"strings"

	"github.com/Azhovan/dotenv"
)

// Options configures environment variable source behavior.
type Options struct {
	// Prefix filters vars starting with prefix. Empty = load all vars.
	// Prefix matching behavior is controlled by CaseSensitive.
	Prefix string

	// CaseSensitive controls prefix matching (default: false).
	// When false, prefix matching is case-insensitive (APP_ matches app_, App_, etc.).
	CaseSensitive bool

	// TrimPrefix strips the matched prefix from keys (APP_PORT → PORT).
	TrimPrefix bool
}

type envSource struct {
	opts    Options
	environ func() []string
}

// New creates an environment variable source.
func New(opts Options) dotenv.Source {
	return &envSource{opts: opts, environ: os.Environ}
}

// Name returns "env".
func (e *envSource) Name() string {
	return "env"
}

// Load scans environment variables and filters them by prefix.
func (e *envSource) Load(ctx context.Context) (map[string]string, error) {
	result := make(map[string]string)

	for _, kv := range e.environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}

		if e.opts.Prefix != "" {
			if !e.hasPrefix(key) {
				continue
			}
			if e.opts.TrimPrefix {
				key = key[len(e.opts.Prefix):]
			}
		}

		if key == "" {
			continue
		}

		result[key] = value
	}

	return result, nil
}

func (e *envSource) hasPrefix(key string) bool {
	if e.opts.CaseSensitive {
		return strings.HasPrefix(key, e.opts.Prefix)
	}
	return len(key) >= len(e.opts.Prefix) && strings.EqualFold(key[:len(e.opts.Prefix)], e.opts.Prefix)
}
