package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Admin     AdminConfig     `yaml:"admin"`
	Backend   BackendConfig   `yaml:"backend"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds the gateway listener configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"3000" yaml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"65536" yaml:"max_body_bytes"`
	Compression     bool          `envconfig:"COMPRESSION_ENABLED" default:"true" yaml:"compression"`
}

// Addr returns the gateway listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// AdminConfig holds the health and metrics listener configuration.
type AdminConfig struct {
	Port    string `envconfig:"ADMIN_PORT" default:"9090" yaml:"port"`
	Host    string `envconfig:"ADMIN_HOST" default:"127.0.0.1" yaml:"host"`
	Enabled bool   `envconfig:"ADMIN_ENABLED" default:"true" yaml:"enabled"`
}

// Addr returns the admin listen address.
func (a AdminConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// BackendConfig describes the backend process.
type BackendConfig struct {
	Root         string `envconfig:"BACKEND_ROOT" default:"." yaml:"root"`
	Executable   string `envconfig:"BACKEND_BIN" yaml:"executable"`
	MaxLineBytes int    `envconfig:"BACKEND_MAX_LINE_BYTES" default:"1048576" yaml:"max_line_bytes"`
	MaxPending   int    `envconfig:"BACKEND_MAX_PENDING" default:"64" yaml:"max_pending"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration. The global limit bounds
// what the single backend sees; the per-client limit keeps one caller from
// using all of it. A ClientRequestsPerSecond of zero disables the per-client
// limit.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50" yaml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled"`

	ClientRequestsPerSecond int           `envconfig:"RATE_LIMIT_CLIENT_RPS" default:"10" yaml:"client_requests_per_second"`
	ClientBurst             int           `envconfig:"RATE_LIMIT_CLIENT_BURST" default:"20" yaml:"client_burst"`
	ClientIdleTTL           time.Duration `envconfig:"RATE_LIMIT_CLIENT_IDLE_TTL" default:"10m" yaml:"client_idle_ttl"`
}

// PerClient reports whether the per-client limit applies.
func (r RateLimitConfig) PerClient() bool {
	return r.Enabled && r.ClientRequestsPerSecond > 0
}

// Load loads configuration from environment variables, then applies the YAML
// file named by CONFIG_FILE if set.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: server port is required")
	}
	if c.Admin.Enabled && c.Admin.Port == "" {
		return fmt.Errorf("invalid config: admin port is required when admin is enabled")
	}
	if c.Admin.Enabled && c.Admin.Port == c.Server.Port && c.Admin.Host == c.Server.Host {
		return fmt.Errorf("invalid config: admin and gateway cannot share %s", c.Server.Addr())
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid config: request timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid config: max body bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Backend.MaxLineBytes < 0 {
		return fmt.Errorf("invalid config: backend max line bytes cannot be negative")
	}
	if c.Backend.MaxPending < 0 {
		return fmt.Errorf("invalid config: backend max pending cannot be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate limit rps and burst must be positive")
	}
	if c.RateLimit.ClientRequestsPerSecond < 0 {
		return fmt.Errorf("invalid config: per-client rate limit cannot be negative")
	}
	if c.RateLimit.PerClient() && c.RateLimit.ClientBurst <= 0 {
		return fmt.Errorf("invalid config: per-client burst must be positive")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3000",
			Host:            "0.0.0.0",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    65536,
			Compression:     true,
		},
		Admin: AdminConfig{
			Port:    "9090",
			Host:    "127.0.0.1",
			Enabled: true,
		},
		Backend: BackendConfig{
			Root:         ".",
			MaxLineBytes: 1048576,
			MaxPending:   64,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,

			ClientRequestsPerSecond: 10,
			ClientBurst:             20,
			ClientIdleTTL:           10 * time.Minute,
		},
	}
}
