package dotenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/Azhovan/dotenv/internal/envfile"
)

// Loader resolves, reads and merges env files into a Reader.
// Files are applied in order (later override earlier), then extra sources.
// Setup errors are kept on the loader and returned by Load/LoadEnv before any
// file is read. Not safe for concurrent configuration changes.
type Loader struct {
	paths         []string
	env           Environment
	sources       []Source
	searchParents bool
	requireFiles  bool
	logger        logrus.FieldLogger
	err           error
}

// NewLoader creates a Loader with no files, the default environment and a
// logger that discards output.
func NewLoader() *Loader {
	return &Loader{
		sources: make([]Source, 0),
		logger:  discardLogger(),
	}
}

// AddEnvFiles registers explicit files in the given order.
// An empty list or an empty path is a ConfigurationError.
func (l *Loader) AddEnvFiles(paths ...string) *Loader {
	if len(paths) == 0 {
		l.fail(configError("AddEnvFiles", "paths", "must not be empty"))
		return l
	}
	for i, p := range paths {
		if p == "" {
			l.fail(configError("AddEnvFiles", fmt.Sprintf("paths[%d]", i), "must not be empty"))
			return l
		}
	}
	l.paths = append(l.paths, paths...)
	return l
}

// SetBasePath sets the directory used by LoadEnv and for relative paths in Load.
func (l *Loader) SetBasePath(path string) *Loader {
	if path == "" {
		l.fail(configError("SetBasePath", "path", "must not be empty"))
		return l
	}
	l.env.BasePath = path
	return l
}

// SetEnvironmentName sets the environment used by LoadEnv.
func (l *Loader) SetEnvironmentName(name string) *Loader {
	if name == "" {
		l.fail(configError("SetEnvironmentName", "name", "must not be empty"))
		return l
	}
	l.env.Name = name
	return l
}

// SetCurrentEnvironment sets the fallback environment used by LoadEnv when no
// explicit name is set. An empty name clears it.
func (l *Loader) SetCurrentEnvironment(name string) *Loader {
	l.env.Current = name
	return l
}

// SearchParents makes a missing file also be looked up in each parent
// directory, nearest first.
func (l *Loader) SearchParents(enabled bool) *Loader {
	l.searchParents = enabled
	return l
}

// RequireFiles makes a missing explicit file an error in Load.
// LoadEnv overlays are always optional.
func (l *Loader) RequireFiles(required bool) *Loader {
	l.requireFiles = required
	return l
}

// WithSource adds a source applied after all files (later override earlier).
func (l *Loader) WithSource(src Source) *Loader {
	if src == nil {
		l.fail(configError("WithSource", "src", "must not be nil"))
		return l
	}
	l.sources = append(l.sources, src)
	return l
}

// WithLogger sets the logger used for resolution diagnostics.
func (l *Loader) WithLogger(logger logrus.FieldLogger) *Loader {
	if logger == nil {
		logger = discardLogger()
	}
	l.logger = logger
	return l
}

// Environment returns the convention settings LoadEnv will use.
func (l *Loader) Environment() Environment {
	return l.env
}

// Err returns the first setup error, if any.
func (l *Loader) Err() error {
	return l.err
}

// Load reads the explicit files (DefaultEnvFileName when none were added) in
// order and merges them. Missing files are skipped unless RequireFiles is set;
// if none exist the Reader is empty.
func (l *Loader) Load(ctx context.Context) (*Reader, error) {
	if l.err != nil {
		return nil, l.err
	}

	return l.load(ctx, l.Files(), "", l.requireFiles)
}

// Files returns the candidates Load reads, in order: the explicit files
// (DefaultEnvFileName when none were added), relative paths joined with the
// base path.
func (l *Loader) Files() []FileSpec {
	paths := l.paths
	if len(paths) == 0 {
		paths = []string{DefaultEnvFileName}
	}

	specs := make([]FileSpec, 0, len(paths))
	for i, p := range paths {
		if l.env.BasePath != "" && !filepath.IsAbs(p) {
			p = filepath.Join(l.env.BasePath, p)
		}
		specs = append(specs, FileSpec{Path: p, Priority: i})
	}
	return specs
}

// LoadEnv reads the convention overlay for the configured environment
// (see Environment.Files) and merges it.
func (l *Loader) LoadEnv(ctx context.Context) (*Reader, error) {
	if l.err != nil {
		return nil, l.err
	}

	name := l.env.EffectiveName()
	l.logger.WithFields(logrus.Fields{
		"base_path":   l.env.BasePath,
		"environment": name,
	}).Debug("resolving env overlay")

	return l.load(ctx, l.env.Files(), name, false)
}

// load reads specs in ascending priority, then applies the extra sources on
// top. Missing files are skipped unless required is set. environment is
// recorded on the returned Reader.
func (l *Loader) load(ctx context.Context, specs []FileSpec, environment string, required bool) (*Reader, error) {
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Priority < specs[j].Priority
	})

	b := newReaderBuilder()

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, found, err := l.locate(spec.Path)
		if err != nil {
			return nil, err
		}
		if !found {
			if required {
				return nil, fmt.Errorf("dotenv: env file %s: %w", spec.Path, os.ErrNotExist)
			}
			l.logger.WithField("file", spec.Path).Debug("env file not found, skipping")
			continue
		}

		entries, err := readEnvFile(path)
		if err != nil {
			return nil, err
		}

		// Later files override earlier ones key by key; first position is kept.
		source := "file:" + path
		for _, e := range entries {
			b.set(e.Key, e.Value, source)
		}
		b.addFile(path)

		l.logger.WithFields(logrus.Fields{
			"file": path,
			"keys": len(entries),
		}).Debug("env file loaded")
	}

	// Extra sources win over every file.
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values, err := src.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("dotenv: load source %s: %w", src.Name(), err)
		}

		// Map order is random; sort so new keys land in a stable order.
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.set(k, values[k], src.Name())
		}

		l.logger.WithFields(logrus.Fields{
			"source": src.Name(),
			"keys":   len(values),
		}).Debug("source loaded")
	}

	r := b.build(environment)
	if r.Len() == 0 {
		l.logger.Debug("no env values loaded")
	}
	return r, nil
}

// locate returns the path to read for candidate, searching parent
// directories when enabled.
func (l *Loader) locate(candidate string) (string, bool, error) {
	found, err := isFile(candidate)
	if err != nil || found {
		return candidate, found, err
	}
	if !l.searchParents {
		return "", false, nil
	}

	dir, err := filepath.Abs(filepath.Dir(candidate))
	if err != nil {
		return "", false, fmt.Errorf("dotenv: resolve %s: %w", candidate, err)
	}
	name := filepath.Base(candidate)

	for {
		parent := filepath.Dir(dir)
		// Reached the filesystem root.
		if parent == dir {
			return "", false, nil
		}
		dir = parent

		path := filepath.Join(dir, name)
		found, err := isFile(path)
		if err != nil {
			return "", false, err
		}
		if found {
			l.logger.WithFields(logrus.Fields{
				"file":  candidate,
				"found": path,
			}).Debug("env file found in parent directory")
			return path, true, nil
		}
	}
}

// isFile reports whether path exists as a regular file. A missing path is
// not an error; a directory is.
func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("dotenv: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("dotenv: env file %s is a directory", path)
	}
	return true, nil
}

// readEnvFile reads and parses one env file, converting syntax errors into
// *ParseError carrying the file and line.
func readEnvFile(path string) ([]envfile.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dotenv: read %s: %w", path, err)
	}

	entries, err := envfile.Parse(data)
	if err != nil {
		var syntaxErr *envfile.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &ParseError{File: path, Line: syntaxErr.Line, Err: errors.New(syntaxErr.Msg)}
		}
		return nil, &ParseError{File: path, Err: err}
	}
	return entries, nil
}

// fail records a setup error. The first one wins and is returned by Load
// and LoadEnv.
func (l *Loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

// discardLogger is the default logger until WithLogger is called.
func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
