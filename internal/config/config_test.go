package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skygraph/statsbridge/internal/cache"
)

const sampleYAML = `
server:
  listen: ":9090"
  enable_http2: true
logging:
  level: debug
  format: json
upstream:
  base_url: https://constellation.microcosm.blue
  timeout_ms: 2500
  max_rps: 50
enricher:
  ttl_ms: 30000
  batch_window: 8
cache:
  mode: redis
  redis:
    url: redis://localhost:6379/0
health:
  circuit:
    failure_threshold: 7
`

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "statsbridge.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.GetListen())
	assert.True(t, cfg.Server.EnableHTTP2)
	assert.Equal(t, zerolog.DebugLevel, cfg.Logging.ParseLevel())
	assert.Equal(t, "https://constellation.microcosm.blue", cfg.Upstream.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Upstream.GetTimeout())
	assert.Equal(t, 50.0, cfg.Upstream.GetMaxRPSOption().MustGet())
	assert.Equal(t, 30*time.Second, cfg.Enricher.GetTTL())
	assert.Equal(t, 8, cfg.Enricher.GetBatchWindowOption().MustGet())
	assert.Equal(t, cache.ModeRedis, cfg.Cache.Mode)
	assert.Equal(t, 7, cfg.Health.Circuit.GetFailureThreshold())
}

func TestLoadTOML(t *testing.T) {
	content := `
[upstream]
base_url = "http://localhost:8000"

[cache]
mode = "disabled"
`
	cfg, err := Load(writeTempConfig(t, "statsbridge.toml", content))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Upstream.BaseURL)
	assert.Equal(t, cache.ModeDisabled, cfg.Cache.Mode)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("INDEX_URL", "http://index.internal:8000")
	content := "upstream:\n  base_url: ${INDEX_URL}\n"

	cfg, err := Load(writeTempConfig(t, "cfg.yaml", content))
	require.NoError(t, err)
	assert.Equal(t, "http://index.internal:8000", cfg.Upstream.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "bad.yaml", "upstream: ["))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrUpstreamURLRequired)

	cfg.Upstream.BaseURL = "http://localhost:8000"
	assert.NoError(t, cfg.Validate())

	cfg.Cache.Mode = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestDefaults(t *testing.T) {
	var cfg Config
	assert.Equal(t, DefaultListen, cfg.Server.GetListen())
	assert.Equal(t, 5*time.Second, cfg.Upstream.GetTimeout())
	assert.True(t, cfg.Upstream.GetMaxRPSOption().IsAbsent())
	assert.Equal(t, time.Minute, cfg.Enricher.GetTTL())
	assert.True(t, cfg.Enricher.GetBatchWindowOption().IsAbsent())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		cfg := LoggingConfig{Level: tt.level}
		assert.Equal(t, tt.want, cfg.ParseLevel(), "level %q", tt.level)
	}
}
