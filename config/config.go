// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Auth modes.
const (
	AuthToken   = "token"
	AuthTrusted = "trusted"
	AuthNone    = "none"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Usage    UsageConfig    `yaml:"usage"`
	Calendar CalendarConfig `yaml:"calendar"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	OpenAPI  OpenAPIConfig  `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig configures storage.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`    // sqlite file path
}

// AuthConfig configures how the owner of a request is established.
//
//	token   - Authorization: Bearer <token>, checked against bcrypt hashes
//	trusted - owner read from OwnerHeader, set by an authenticating proxy
//	none    - every request acts as DefaultOwner
type AuthConfig struct {
	Mode         string        `yaml:"mode"`
	OwnerHeader  string        `yaml:"owner_header,omitempty"`
	DefaultOwner string        `yaml:"default_owner,omitempty"`
	BcryptCost   int           `yaml:"bcrypt_cost,omitempty"`
	Tokens       []TokenConfig `yaml:"tokens,omitempty"`
}

// TokenConfig grants an owner access with a hashed token.
type TokenConfig struct {
	Owner string `yaml:"owner"`
	Hash  string `yaml:"hash"` // bcrypt, see `vaultmeter hash-token`
}

// UsageConfig configures usage recomputation.
type UsageConfig struct {
	CacheTTL    time.Duration `yaml:"cache_ttl"`   // event snapshot lifetime; negative disables caching
	Concurrency int           `yaml:"concurrency"` // accounts recomputed in parallel
}

// CalendarConfig configures calendar evaluation.
type CalendarConfig struct {
	Timezone string `yaml:"timezone"` // IANA name; "" or "Local" for the host zone
}

// Location returns the configured time zone.
func (c CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /metrics endpoint
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /swagger/*
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	data = expandEnv(data)

	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references. Bare $ is left alone so bcrypt
// hashes survive.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	VAULTMETER_SERVER_HOST        - Server host (default: 0.0.0.0)
//	VAULTMETER_SERVER_PORT        - Server port (default: 8080)
//	VAULTMETER_DATABASE_DRIVER    - sqlite or memory (default: sqlite)
//	VAULTMETER_DATABASE_DSN       - Database path (default: vaultmeter.db)
//	VAULTMETER_AUTH_MODE          - token, trusted or none (default: token)
//	VAULTMETER_AUTH_DEFAULT_OWNER - Owner used when auth mode is none
//	VAULTMETER_AUTH_TOKENS        - owner=hash pairs, comma separated
//	VAULTMETER_USAGE_CACHE_TTL    - Event snapshot lifetime (default: 5s)
//	VAULTMETER_USAGE_CONCURRENCY  - Parallel recomputes (default: 8)
//	VAULTMETER_CALENDAR_TIMEZONE  - IANA time zone (default: Local)
//	VAULTMETER_LOG_LEVEL          - Log level: debug, info, warn, error (default: info)
//	VAULTMETER_LOG_FORMAT         - Log format: json or console (default: json)
//	VAULTMETER_METRICS_ENABLED    - Enable /metrics endpoint (default: true)
//	VAULTMETER_OPENAPI_ENABLED    - Enable Swagger UI (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists and falls back to environment
// variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies VAULTMETER_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("VAULTMETER_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VAULTMETER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	// Database configuration
	if v := os.Getenv("VAULTMETER_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("VAULTMETER_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Auth configuration
	if v := os.Getenv("VAULTMETER_AUTH_MODE"); v != "" {
		cfg.Auth.Mode = v
	}
	if v := os.Getenv("VAULTMETER_AUTH_DEFAULT_OWNER"); v != "" {
		cfg.Auth.DefaultOwner = v
	}
	if v := os.Getenv("VAULTMETER_AUTH_TOKENS"); v != "" {
		cfg.Auth.Tokens = parseTokens(v)
	}

	// Usage configuration
	if v := os.Getenv("VAULTMETER_USAGE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Usage.CacheTTL = d
		}
	}
	if v := os.Getenv("VAULTMETER_USAGE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Usage.Concurrency = n
		}
	}

	if v := os.Getenv("VAULTMETER_CALENDAR_TIMEZONE"); v != "" {
		cfg.Calendar.Timezone = v
	}

	// Logging configuration
	if v := os.Getenv("VAULTMETER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VAULTMETER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("VAULTMETER_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("VAULTMETER_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseTokens reads "owner=hash,owner=hash". Malformed pairs are skipped.
func parseTokens(v string) []TokenConfig {
	var out []TokenConfig
	for _, pair := range strings.Split(v, ",") {
		owner, hash, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || owner == "" || hash == "" {
			continue
		}
		out = append(out, TokenConfig{Owner: owner, Hash: hash})
	}
	return out
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = "vaultmeter.db"
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthToken
	}
	if cfg.Auth.OwnerHeader == "" {
		cfg.Auth.OwnerHeader = "X-Owner-ID"
	}
	if cfg.Auth.DefaultOwner == "" && cfg.Auth.Mode == AuthNone {
		cfg.Auth.DefaultOwner = "default"
	}

	if cfg.Usage.CacheTTL == 0 {
		cfg.Usage.CacheTTL = 5 * time.Second
	}
	if cfg.Usage.Concurrency == 0 {
		cfg.Usage.Concurrency = 8
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Database.Driver {
	case DriverSQLite:
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	switch cfg.Auth.Mode {
	case AuthToken, AuthTrusted, AuthNone:
	default:
		return fmt.Errorf("auth.mode must be 'token', 'trusted' or 'none', got %q", cfg.Auth.Mode)
	}
	for i, t := range cfg.Auth.Tokens {
		if t.Owner == "" {
			return fmt.Errorf("auth.tokens[%d].owner is required", i)
		}
		if t.Hash == "" {
			return fmt.Errorf("auth.tokens[%d].hash is required", i)
		}
	}

	if cfg.Usage.Concurrency < 1 {
		return fmt.Errorf("usage.concurrency must be at least 1, got %d", cfg.Usage.Concurrency)
	}

	if _, err := cfg.Calendar.Location(); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateServe checks what only the HTTP server needs. CLI commands run
// without owner tokens.
func (c *Config) ValidateServe() error {
	if c.Auth.Mode == AuthToken && len(c.Auth.Tokens) == 0 {
		return fmt.Errorf("auth.tokens must not be empty when auth.mode is 'token'")
	}
	return nil
}
