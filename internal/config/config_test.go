package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("backend", "", "")
	fs.String("transport", "", "")
	fs.String("log-level", "", "")
	fs.String("output", "", "")
	fs.String("source", "", "")
	fs.StringSlice("hidden", nil, "")
	return fs
}

func TestDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:5000", cfg.Backend.URL)
	assert.Equal(t, "http", cfg.Backend.Transport)
	assert.Zero(t, cfg.Backend.Timeout, "no client timeout unless configured")
	assert.Equal(t, "/get-databases", cfg.Backend.Endpoints.Sources)
	assert.Equal(t, "/download-excel", cfg.Backend.Endpoints.Export)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, []string{"sys", "information_schema", "mysql", "performance_schema"}, cfg.Server.HiddenDatabases)
}

func TestPrecedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  url: http://file:1
  timeout: 30s
  endpoints:
    query: /api/query
log_level: warn
output: csv
`), 0o600))

	t.Setenv("QUERYDESK_BACKEND__URL", "http://env:2")
	t.Setenv("QUERYDESK_LOG_LEVEL", "debug")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--log-level=error", "--source=ignored"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "http://env:2", cfg.Backend.URL, "env beats file")
	assert.Equal(t, "error", cfg.LogLevel, "flag beats env")
	assert.Equal(t, "csv", cfg.Output, "file beats defaults")
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "/api/query", cfg.Backend.Endpoints.Query)
	assert.Equal(t, "/get-databases", cfg.Backend.Endpoints.Sources, "unset endpoints keep defaults")
}

func TestUnsetFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("QUERYDESK_BACKEND__TRANSPORT", "grpc")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "grpc", cfg.Backend.Transport)
}

func TestDefaultFileIsRead(t *testing.T) {
	isolate(t)
	p, err := DefaultPath()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("download_dir: /tmp/out\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out", cfg.DownloadDir)
}

func TestExplicitFileMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	t.Setenv("QUERYDESK_BACKEND__TRANSPORT", "smoke-signals")
	t.Setenv("QUERYDESK_LOG_FORMAT", "xml")

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.transport")
	assert.Contains(t, err.Error(), "log_format")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "backend.endpoints.query", envKey("QUERYDESK_BACKEND__ENDPOINTS__QUERY"))
	assert.Equal(t, "download_dir", envKey("QUERYDESK_DOWNLOAD_DIR"))
}
