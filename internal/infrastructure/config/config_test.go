package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"PORT", "HOST", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT", "MAX_BODY_BYTES", "COMPRESSION_ENABLED",
	"ADMIN_PORT", "ADMIN_HOST", "ADMIN_ENABLED",
	"BACKEND_ROOT", "BACKEND_BIN", "BACKEND_MAX_LINE_BYTES", "BACKEND_MAX_PENDING",
	"LOG_LEVEL", "LOG_DEV",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_ENABLED",
	"RATE_LIMIT_CLIENT_RPS", "RATE_LIMIT_CLIENT_BURST", "RATE_LIMIT_CLIENT_IDLE_TTL",
	"CONFIG_FILE",
}

// clearEnv unsets every variable Load reads and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		if value, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.True(t, cfg.Server.Compression)

	assert.Equal(t, "9090", cfg.Admin.Port)
	assert.True(t, cfg.Admin.Enabled)

	assert.Equal(t, ".", cfg.Backend.Root)
	assert.Empty(t, cfg.Backend.Executable)
	assert.Equal(t, 1<<20, cfg.Backend.MaxLineBytes)
	assert.Equal(t, 64, cfg.Backend.MaxPending)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.ClientRequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.ClientBurst)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.ClientIdleTTL)
	assert.True(t, cfg.RateLimit.PerClient())

	assert.NoError(t, cfg.Validate())
}

func TestLoadMatchesDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	clearEnv(t)
	envVars := map[string]string{
		"PORT":                   "4000",
		"HOST":                   "127.0.0.1",
		"REQUEST_TIMEOUT":        "5s",
		"ADMIN_PORT":             "9100",
		"BACKEND_ROOT":           "/opt/cterminal",
		"BACKEND_BIN":            "bin/terminal",
		"BACKEND_MAX_LINE_BYTES": "4096",
		"BACKEND_MAX_PENDING":    "8",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_ENABLED":     "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "9100", cfg.Admin.Port)
	assert.Equal(t, "/opt/cterminal", cfg.Backend.Root)
	assert.Equal(t, "bin/terminal", cfg.Backend.Executable)
	assert.Equal(t, 4096, cfg.Backend.MaxLineBytes)
	assert.Equal(t, 8, cfg.Backend.MaxPending)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_MAX_PENDING", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	data := `
server:
  port: "8080"
  request_timeout: 2s
backend:
  root: /srv/terminal
  max_pending: 16
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HOST", "10.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "/srv/terminal", cfg.Backend.Root)
	assert.Equal(t, 16, cfg.Backend.MaxPending)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Keys absent from the file keep their env or default values
	assert.Equal(t, "10.0.0.1", cfg.Server.Host)
	assert.Equal(t, 1<<20, cfg.Backend.MaxLineBytes)
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	assert.Error(t, cfg.LoadFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Server.Port = "" }, true},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, true},
		{"zero body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, true},
		{"negative pending", func(c *Config) { c.Backend.MaxPending = -1 }, true},
		{"negative line bytes", func(c *Config) { c.Backend.MaxLineBytes = -1 }, true},
		{"unbounded pending allowed", func(c *Config) { c.Backend.MaxPending = 0 }, false},
		{"admin shares gateway addr", func(c *Config) {
			c.Admin.Host = c.Server.Host
			c.Admin.Port = c.Server.Port
		}, true},
		{"admin disabled shares addr", func(c *Config) {
			c.Admin.Enabled = false
			c.Admin.Host = c.Server.Host
			c.Admin.Port = c.Server.Port
		}, false},
		{"rate limit zero rps", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }, true},
		{"per-client disabled", func(c *Config) { c.RateLimit.ClientRequestsPerSecond = 0 }, false},
		{"per-client negative", func(c *Config) { c.RateLimit.ClientRequestsPerSecond = -1 }, true},
		{"per-client zero burst", func(c *Config) { c.RateLimit.ClientBurst = 0 }, true},
		{"rate limit disabled zero rps", func(c *Config) {
			c.RateLimit.Enabled = false
			c.RateLimit.RequestsPerSecond = 0
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, "127.0.0.1:9090", cfg.Admin.Addr())
}
