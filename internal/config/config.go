// Package config resolves the server configuration from an optional YAML
// file overridden by environment variables, and validates it fully before
// any transport starts accepting traffic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/providentiaww/autotask-mcp/internal/autotask"
)

// TransportType selects which channels the server runs.
type TransportType string

const (
	TransportStdio TransportType = "stdio"
	TransportHTTP  TransportType = "http"
	TransportBoth  TransportType = "both"
)

// IncludesHTTP reports whether the network transport is active.
func (t TransportType) IncludesHTTP() bool {
	return t == TransportHTTP || t == TransportBoth
}

// IncludesStdio reports whether the pipe transport is active.
func (t TransportType) IncludesStdio() bool {
	return t == TransportStdio || t == TransportBoth
}

// AuthConfig gates the network transport. Username and password are required
// together whenever Enabled is true and the network transport is active.
type AuthConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	ServiceTokenSecret string `yaml:"serviceTokenSecret"`
}

// HTTPConfig holds the network transport settings.
type HTTPConfig struct {
	Host string     `yaml:"host"`
	Port int        `yaml:"port"`
	Auth AuthConfig `yaml:"auth"`
}

// Config is the complete startup configuration. It is constructed once and
// read-only for the process lifetime.
type Config struct {
	Transport TransportType `yaml:"transport"`
	HTTP      HTTPConfig    `yaml:"http"`
	LogLevel  string        `yaml:"logLevel"`

	// Autotask credentials come from the environment only, never the file.
	Autotask autotask.Credentials `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Transport: TransportHTTP,
		HTTP: HTTPConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		LogLevel: "info",
	}
}

// Load resolves configuration: defaults, then the YAML file named by
// CONFIG_FILE (or ./config.yaml when present), then environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MCP_TRANSPORT"); v != "" {
		cfg.Transport = TransportType(strings.ToLower(v))
	}
	if v := os.Getenv("MCP_HTTP_HOST"); v != "" {
		cfg.HTTP.Host = v
	}
	if v := os.Getenv("MCP_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
	if v := os.Getenv("MCP_AUTH_ENABLED"); v != "" {
		cfg.HTTP.Auth.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("MCP_AUTH_USERNAME"); v != "" {
		cfg.HTTP.Auth.Username = v
	}
	if v := os.Getenv("MCP_AUTH_PASSWORD"); v != "" {
		cfg.HTTP.Auth.Password = v
	}
	if v := os.Getenv("MCP_SERVICE_TOKEN_SECRET"); v != "" {
		cfg.HTTP.Auth.ServiceTokenSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.Autotask = autotask.Credentials{
		Username:        os.Getenv("AUTOTASK_USERNAME"),
		Secret:          os.Getenv("AUTOTASK_SECRET"),
		IntegrationCode: os.Getenv("AUTOTASK_INTEGRATION_CODE"),
		BaseURL:         os.Getenv("AUTOTASK_API_URL"),
	}
}

// Validate checks the whole configuration. It runs before any listener
// starts, so a misconfigured credential gate can never accept a connection.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP, TransportBoth:
	default:
		return fmt.Errorf("config: transport must be one of stdio, http, both (got %q)", c.Transport)
	}

	if c.Transport.IncludesHTTP() {
		if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
			return fmt.Errorf("config: http port must be between 1 and 65535 (got %d)", c.HTTP.Port)
		}
		if c.HTTP.Auth.Enabled {
			if c.HTTP.Auth.Username == "" || c.HTTP.Auth.Password == "" {
				return fmt.Errorf("config: auth is enabled but username and password are not both set")
			}
		}
	}

	if c.Autotask.Username == "" || c.Autotask.Secret == "" || c.Autotask.IntegrationCode == "" {
		return fmt.Errorf("config: AUTOTASK_USERNAME, AUTOTASK_SECRET and AUTOTASK_INTEGRATION_CODE must be set")
	}
	return nil
}
