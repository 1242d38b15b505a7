package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/tuistat/internal/model"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENDPOINT", "TIMEOUT", "EXPORT_DIR", "PERSIST_HISTORY", "DB_PATH",
		"CHARTS", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "SERVE_ADDR",
	} {
		name := EnvPrefix + "_" + key
		if old, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { _ = os.Setenv(name, old) })
		}
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, s.Endpoint)
	assert.Equal(t, time.Duration(0), s.Timeout)
	assert.Equal(t, ".", s.ExportDir)
	assert.False(t, s.PersistHistory)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)
	assert.Equal(t, "127.0.0.1:8080", s.ServeAddr)
	assert.Equal(t, DefaultDBPath(), s.DBPath)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
endpoint = "http://localhost:9000/"
timeout = "5s"

[history]
persist = true

[charts]
default = "hist,box"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("TUISTAT_LOG_LEVEL", "warn")
	t.Setenv("TUISTAT_EXPORT_DIR", "/tmp/exports")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", s.Endpoint)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.True(t, s.PersistHistory)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, "/tmp/exports", s.ExportDir)
	assert.Equal(t, []model.ChartKind{model.ChartHistogram, model.ChartBoxplot}, s.ChartKinds())
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	bad := "nope"
	_, err := Resolve(FileConfig{Log: LogConfig{Level: &bad}})
	assert.Error(t, err)

	_, err = Resolve(FileConfig{API: APIConfig{Timeout: &bad}})
	assert.Error(t, err)

	_, err = Resolve(FileConfig{Charts: ChartsConfig{Default: &bad}})
	assert.Error(t, err)

	notURL := "not a url"
	_, err = Resolve(FileConfig{API: APIConfig{Endpoint: &notURL}})
	assert.Error(t, err)
}

func TestLoadConfigRejectsEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\nendpoint="), 0o644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "tuistat", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "tuistat", "history.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "tuistat", "tuistat.log"), DefaultLogPath())
}
