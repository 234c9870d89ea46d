// Package config provides configuration loading for the erplite client.
// Configuration sources (in priority order): env vars > config file > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"
)

// Session backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ERPLITE_"

// Config holds all client configuration.
type Config struct {
	// API base URL including the path prefix (default "http://127.0.0.1:8000/api")
	APIURL string `json:"api_url"`

	// Where the session is persisted: "file" or "redis"
	SessionBackend string `json:"session_backend"`
	// Directory for the file backend (default: user config dir)
	SessionPath string `json:"session_path,omitempty"`
	// Storage key for the session blob
	SessionKey string `json:"session_key,omitempty"`
	// Redis URL for the redis backend, e.g. redis://localhost:6379/0
	RedisURL string `json:"redis_url,omitempty"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// OTLP gRPC endpoint; tracing is disabled when empty
	OTLPEndpoint string `json:"otlp_endpoint,omitempty"`
	// Address to serve Prometheus metrics on; disabled when empty
	MetricsAddr string `json:"metrics_addr,omitempty"`
}

// Default returns configuration with sensible defaults.
func Default() Config {
	return Config{
		APIURL:         "http://127.0.0.1:8000/api",
		SessionBackend: BackendFile,
		LogLevel:       "info",
	}
}

// DefaultPath is where the CLI looks for a config file when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "erplite", "config.yaml")
}

// Load reads configuration from a JSON or YAML file, then overlays
// environment variables. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"API_URL":         &cfg.APIURL,
		"SESSION_BACKEND": &cfg.SessionBackend,
		"SESSION_PATH":    &cfg.SessionPath,
		"SESSION_KEY":     &cfg.SessionKey,
		"REDIS_URL":       &cfg.RedisURL,
		"LOG_LEVEL":       &cfg.LogLevel,
		"OTLP_ENDPOINT":   &cfg.OTLPEndpoint,
		"METRICS_ADDR":    &cfg.MetricsAddr,
	}
	for name, field := range overrides {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*field = v
		}
	}
}

// Validate checks the values that would otherwise fail later at first use.
func (c Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}

	switch strings.ToLower(c.SessionBackend) {
	case BackendFile:
	case BackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("session_backend %q requires redis_url", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown session_backend %q", c.SessionBackend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Save writes configuration to a file, as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// HasTracing returns true if an OTLP endpoint is configured.
func (c Config) HasTracing() bool {
	return c.OTLPEndpoint != ""
}

// HasMetrics returns true if a metrics address is configured.
func (c Config) HasMetrics() bool {
	return c.MetricsAddr != ""
}
