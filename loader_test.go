package dotenv

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testdataDir   = "testdata"
	configEnvPath = "testdata/env_files/config.env"
	devBasePath   = "testdata/env_files/environment/dev"
	prodBasePath  = "testdata/env_files/environment/production"
)

// writeEnvFile writes content to name inside dir and returns the path.
func writeEnvFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type mockSource struct {
	name string
	data map[string]string
	err  error
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Load(ctx context.Context) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.data == nil {
		return make(map[string]string), nil
	}
	return m.data, nil
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader()

	require.NotNil(t, loader)
	assert.NotNil(t, loader.sources)
	assert.NotNil(t, loader.logger)
	assert.Empty(t, loader.paths)
	assert.NoError(t, loader.Err())
	assert.Equal(t, Environment{}, loader.Environment())
}

func TestLoader_FluentSetters(t *testing.T) {
	src := &mockSource{name: "mock"}
	loader := NewLoader()

	assert.Same(t, loader, loader.AddEnvFiles("a.env"))
	assert.Same(t, loader, loader.SetBasePath("config"))
	assert.Same(t, loader, loader.SetEnvironmentName("staging"))
	assert.Same(t, loader, loader.SetCurrentEnvironment("production"))
	assert.Same(t, loader, loader.SearchParents(true))
	assert.Same(t, loader, loader.RequireFiles(true))
	assert.Same(t, loader, loader.WithSource(src))
	assert.Same(t, loader, loader.WithLogger(nil))

	assert.Equal(t, []string{"a.env"}, loader.paths)
	assert.Equal(t, Environment{BasePath: "config", Name: "staging", Current: "production"}, loader.Environment())
	assert.True(t, loader.searchParents)
	assert.True(t, loader.requireFiles)
	assert.Equal(t, []Source{src}, loader.sources)
	assert.NotNil(t, loader.logger)
}

func TestLoad_SingleFile(t *testing.T) {
	r, err := NewLoader().AddEnvFiles(configEnvPath).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Cool", r.Value("SUMMARIES"))
	assert.Equal(t, []string{configEnvPath}, r.Files())
	assert.Equal(t, "file:"+configEnvPath, r.Source("SUMMARIES"))
	assert.Empty(t, r.Environment())
}

func TestLoad_DefaultEnvFile(t *testing.T) {
	r, err := NewLoader().SetBasePath(testdataDir).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Cool", r.Value("SUMMARIES"))
	assert.Equal(t, []string{filepath.Join(testdataDir, ".env")}, r.Files())
}

func TestLoad_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	a := writeEnvFile(t, dir, "a.env", "K=from-a\nONLY_A=1\nSHARED=a\n")
	b := writeEnvFile(t, dir, "b.env", "NEW=2\nK=from-b\n")

	r, err := NewLoader().AddEnvFiles(a, b).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "from-b", r.Value("K"))
	assert.Equal(t, "file:"+b, r.Source("K"))
	assert.Equal(t, "a", r.Value("SHARED"))
	assert.Equal(t, "file:"+a, r.Source("SHARED"))
	assert.Equal(t, []string{"K", "ONLY_A", "SHARED", "NEW"}, r.Keys())
}

func TestLoad_Deterministic(t *testing.T) {
	dir := t.TempDir()
	a := writeEnvFile(t, dir, "a.env", "Z=1\nA=2\nM=3\n")
	b := writeEnvFile(t, dir, "b.env", "A=4\nB=5\n")

	first, err := NewLoader().AddEnvFiles(a, b).Load(context.Background())
	require.NoError(t, err)
	second, err := NewLoader().AddEnvFiles(a, b).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"Z", "A", "M", "B"}, first.Keys())
}

func TestLoad_RelativePathsUseBasePath(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, "conf/app.env", "APP=1\n")
	abs := writeEnvFile(t, dir, "abs.env", "ABS=1\n")

	r, err := NewLoader().
		SetBasePath(filepath.Join(dir, "conf")).
		AddEnvFiles("app.env", abs).
		Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", r.Value("APP"))
	assert.Equal(t, "1", r.Value("ABS"))
}

func TestLoad_MissingFilesSkipped(t *testing.T) {
	dir := t.TempDir()
	present := writeEnvFile(t, dir, "present.env", "K=v\n")
	missing := filepath.Join(dir, "missing.env")

	r, err := NewLoader().AddEnvFiles(missing, present).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v", r.Value("K"))
	assert.Equal(t, []string{present}, r.Files())

	r, err = NewLoader().AddEnvFiles(missing).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoad_RequireFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	_, err := NewLoader().AddEnvFiles(missing).RequireFiles(true).Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), missing)
}

func TestLoad_DirectoryIsError(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader().AddEnvFiles(dir).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "# header\nGOOD=1\n\nBROKEN LINE\n")

	_, err := NewLoader().AddEnvFiles(path).Load(context.Background())
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, path, parseErr.File)
	assert.Equal(t, 4, parseErr.Line)
}

func TestLoad_ConfigurationErrorsBeforeIO(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	tests := []struct {
		name   string
		loader *Loader
		op     string
	}{
		{"empty path list", NewLoader().AddEnvFiles(), "AddEnvFiles"},
		{"empty path", NewLoader().AddEnvFiles(missing, ""), "AddEnvFiles"},
		{"empty base path", NewLoader().SetBasePath(""), "SetBasePath"},
		{"empty environment name", NewLoader().SetEnvironmentName(""), "SetEnvironmentName"},
		{"nil source", NewLoader().WithSource(nil), "WithSource"},
		{
			name:   "first error wins",
			loader: NewLoader().SetBasePath("").AddEnvFiles().RequireFiles(true),
			op:     "SetBasePath",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfgErr *ConfigurationError
			require.ErrorAs(t, tt.loader.Err(), &cfgErr)
			assert.Equal(t, tt.op, cfgErr.Op)

			_, err := tt.loader.Load(context.Background())
			assert.Same(t, cfgErr, errorAsConfig(t, err))

			_, err = tt.loader.LoadEnv(context.Background())
			assert.Same(t, cfgErr, errorAsConfig(t, err))
		})
	}
}

func errorAsConfig(t *testing.T, err error) *ConfigurationError {
	t.Helper()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	return cfgErr
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().AddEnvFiles(configEnvPath).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewLoader().SetBasePath(devBasePath).LoadEnv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_SearchParents(t *testing.T) {
	root := t.TempDir()
	writeEnvFile(t, root, ".env", "ROOT=1\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	r, err := NewLoader().AddEnvFiles(filepath.Join(nested, ".env")).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Has("ROOT"))

	r, err = NewLoader().
		AddEnvFiles(filepath.Join(nested, ".env")).
		SearchParents(true).
		Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", r.Value("ROOT"))
	assert.Equal(t, []string{filepath.Join(root, ".env")}, r.Files())
}

func TestLoad_SearchParentsNearestFirst(t *testing.T) {
	root := t.TempDir()
	writeEnvFile(t, root, "app.env", "LEVEL=root\n")
	writeEnvFile(t, root, "a/app.env", "LEVEL=a\n")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	r, err := NewLoader().
		AddEnvFiles(filepath.Join(nested, "app.env")).
		SearchParents(true).
		Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", r.Value("LEVEL"))
}

func TestLoad_WithSources(t *testing.T) {
	dir := t.TempDir()
	path := writeEnvFile(t, dir, ".env", "HOST=file\nPORT=1\n")

	first := &mockSource{name: "first", data: map[string]string{"HOST": "first", "ZONE": "z"}}
	second := &mockSource{name: "second", data: map[string]string{"HOST": "second", "A": "a"}}

	r, err := NewLoader().
		AddEnvFiles(path).
		WithSource(first).
		WithSource(second).
		Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "second", r.Value("HOST"))
	assert.Equal(t, "second", r.Source("HOST"))
	assert.Equal(t, "file:"+path, r.Source("PORT"))
	assert.Equal(t, "first", r.Source("ZONE"))
	assert.Equal(t, []string{"HOST", "PORT", "ZONE", "A"}, r.Keys())
}

func TestLoad_SourceError(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewLoader().
		AddEnvFiles(configEnvPath).
		WithSource(&mockSource{name: "broken", err: boom}).
		Load(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load source broken")
}

func TestLoadEnv_DevOverlay(t *testing.T) {
	r, err := NewLoader().
		SetBasePath(devBasePath).
		SetEnvironmentName("dev").
		LoadEnv(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1", r.Value("DEV_ENV"))
	assert.Equal(t, "1", r.Value("DEV_ENV_DEV"))
	assert.Equal(t, "1", r.Value("DEV_ENV_DEV_LOCAL"))
	assert.Equal(t, "1", r.Value("DEV_ENV_LOCAL"))
	assert.Equal(t, "dev", r.Environment())
	assert.Equal(t, []string{
		filepath.Join(devBasePath, ".env"),
		filepath.Join(devBasePath, ".env.dev"),
		filepath.Join(devBasePath, ".env.local"),
		filepath.Join(devBasePath, ".env.dev.local"),
	}, r.Files())
}

func TestLoadEnv_ProductionOverridesInOrder(t *testing.T) {
	r, err := NewLoader().
		SetBasePath(prodBasePath).
		SetEnvironmentName("production").
		LoadEnv(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"PROD_ENV", "PROD_ENV_PROD", "PROD_ENV_LOCAL", "PROD_ENV_PROD_LOCAL"}, r.Keys())
	for _, k := range r.Keys() {
		assert.Equal(t, "1", r.Value(k), k)
	}
	assert.Equal(t, "file:"+filepath.Join(prodBasePath, ".env.production"), r.Source("PROD_ENV_PROD"))
	assert.Equal(t, "file:"+filepath.Join(prodBasePath, ".env.production.local"), r.Source("PROD_ENV_PROD_LOCAL"))
}

func TestLoadEnv_CurrentEnvironment(t *testing.T) {
	r, err := NewLoader().
		SetBasePath(prodBasePath).
		SetCurrentEnvironment("production").
		LoadEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "production", r.Environment())
	assert.Equal(t, "1", r.Value("PROD_ENV_PROD"))

	// An explicit name takes precedence over the current environment.
	r, err = NewLoader().
		SetBasePath(devBasePath).
		SetCurrentEnvironment("production").
		SetEnvironmentName("dev").
		LoadEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dev", r.Environment())
	assert.True(t, r.Has("DEV_ENV_DEV"))
}

func TestLoadEnv_DefaultEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, ".env", "BASE=1\n")
	writeEnvFile(t, dir, ".env.development", "DEVELOPMENT=1\n")
	writeEnvFile(t, dir, ".env.dev", "DEV=1\n")

	r, err := NewLoader().SetBasePath(dir).LoadEnv(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DefaultEnvironmentName, r.Environment())
	assert.True(t, r.Has("BASE"))
	assert.True(t, r.Has("DEVELOPMENT"))
	assert.False(t, r.Has("DEV"))
}

func TestLoadEnv_TestEnvironmentSkipsLocal(t *testing.T) {
	dir := t.TempDir()
	writeEnvFile(t, dir, ".env", "K=base\n")
	writeEnvFile(t, dir, ".env.local", "K=local\nLOCAL=1\n")
	writeEnvFile(t, dir, ".env.test", "TEST=1\n")
	writeEnvFile(t, dir, ".env.test.local", "TEST_LOCAL=1\n")

	r, err := NewLoader().SetBasePath(dir).SetEnvironmentName(TestEnvironmentName).LoadEnv(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "base", r.Value("K"))
	assert.False(t, r.Has("LOCAL"))
	assert.True(t, r.Has("TEST"))
	assert.True(t, r.Has("TEST_LOCAL"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	r, err := NewLoader().SetBasePath(t.TempDir()).SetEnvironmentName("staging").LoadEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Files())
	assert.Equal(t, "staging", r.Environment())
}

func TestLoadEnv_IgnoresRequireFiles(t *testing.T) {
	r, err := NewLoader().SetBasePath(t.TempDir()).RequireFiles(true).LoadEnv(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoader_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	missing := filepath.Join(t.TempDir(), "missing.env")
	_, err := NewLoader().
		WithLogger(logger).
		AddEnvFiles(configEnvPath, missing).
		Load(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "env file loaded")
	assert.Contains(t, out, "keys=1")
	assert.Contains(t, out, "env file not found, skipping")
}

func TestLoader_Files(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "abs.env")

	assert.Equal(t, []FileSpec{{Path: DefaultEnvFileName, Priority: 0}}, NewLoader().Files())

	got := NewLoader().SetBasePath("config").AddEnvFiles("a.env", abs).Files()
	assert.Equal(t, []FileSpec{
		{Path: filepath.Join("config", "a.env"), Priority: 0},
		{Path: abs, Priority: 1},
	}, got)
}
