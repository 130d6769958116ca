// Package config loads gusto-mcp settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gusto-mcp/internal/gusto"
)

// Config is the full runtime configuration.
type Config struct {
	Gusto     GustoConfig     `yaml:"gusto"`
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GustoConfig configures the upstream client.
type GustoConfig struct {
	AccessToken string        `yaml:"access_token"`
	Environment string        `yaml:"environment"` // "production" (default) or "demo"
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
}

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Port     string `yaml:"port"`
	Token    string `yaml:"token"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" (default) or "json"
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
}

// ErrMissingToken is returned by Validate when no Gusto access token is set.
var ErrMissingToken = errors.New("GUSTO_ACCESS_TOKEN environment variable required")

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Gusto: GustoConfig{
			Environment: "production",
			Timeout:     30 * time.Second,
		},
		HTTP: HTTPConfig{Port: "3000"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides. ${VAR} references in the file are expanded.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Gusto.AccessToken = getEnv("GUSTO_ACCESS_TOKEN", c.Gusto.AccessToken)
	c.Gusto.Environment = getEnv("GUSTO_ENV", c.Gusto.Environment)
	c.Gusto.BaseURL = getEnv("GUSTO_API_BASE_URL", c.Gusto.BaseURL)
	c.Gusto.Timeout = getEnvDuration("GUSTO_TIMEOUT", c.Gusto.Timeout)
	c.HTTP.Port = getEnv("PORT", c.HTTP.Port)
	c.HTTP.Token = getEnv("MCP_TOKEN", c.HTTP.Token)
	c.HTTP.CertFile = getEnv("TLS_CERT_FILE", c.HTTP.CertFile)
	c.HTTP.KeyFile = getEnv("TLS_KEY_FILE", c.HTTP.KeyFile)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
	c.Telemetry.Insecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", c.Telemetry.Insecure)
}

// Validate reports configuration that must stop startup.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Gusto.AccessToken) == "" {
		return ErrMissingToken
	}
	switch strings.ToLower(c.Gusto.Environment) {
	case "", "production", "demo":
	default:
		return fmt.Errorf("unknown gusto environment %q (want production or demo)", c.Gusto.Environment)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if (c.HTTP.CertFile == "") != (c.HTTP.KeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// UpstreamBaseURL resolves the Gusto base URL. An explicit base URL wins over
// the environment name.
func (c Config) UpstreamBaseURL() string {
	if c.Gusto.BaseURL != "" {
		return c.Gusto.BaseURL
	}
	if strings.EqualFold(c.Gusto.Environment, "demo") {
		return gusto.DemoBaseURL
	}
	return gusto.DefaultBaseURL
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
