package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCLIConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
server = "localhost:2629"
client_name = "dict-test"
timeout = "3s"
cache_size = 0
cache_ttl = "1m"
log_level = "debug"
breaker_failures = 5
breaker_timeout = "15s"
database = "wn"
strategy = "prefix"
metrics_addr = "127.0.0.1:9628"
`)

	cfg, err := loadCLIConfig(path, true)
	require.NoError(t, err)

	assert.Equal(t, cliConfig{
		Server:          "localhost:2629",
		ClientName:      "dict-test",
		Timeout:         3 * time.Second,
		CacheSize:       0,
		CacheTTL:        time.Minute,
		LogLevel:        zerolog.DebugLevel,
		BreakerFailures: 5,
		BreakerTimeout:  15 * time.Second,
		Database:        "wn",
		Strategy:        "prefix",
		MetricsAddr:     "127.0.0.1:9628",
	}, cfg)
}

func TestLoadCLIConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `server = "  "`)

	cfg, err := loadCLIConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, defaultCLIConfig(), cfg)
}

func TestLoadCLIConfig_NoPath(t *testing.T) {
	cfg, err := loadCLIConfig("", false)
	require.NoError(t, err)
	assert.Equal(t, defaultCLIConfig(), cfg)
}

func TestLoadCLIConfig_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, err := loadCLIConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, defaultCLIConfig(), cfg)

	_, err = loadCLIConfig(path, true)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCLIConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad timeout", `timeout = "soon"`, "parse timeout"},
		{"bad cache ttl", `cache_ttl = "1 minute"`, "parse cache_ttl"},
		{"bad log level", `log_level = "loud"`, "parse log_level"},
		{"bad breaker timeout", `breaker_timeout = "x"`, "parse breaker_timeout"},
		{"unknown key", `colour = "blue"`, "unknown config key"},
		{"invalid toml", `server = `, "load dict config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadCLIConfig(writeConfig(t, tt.content), true)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
