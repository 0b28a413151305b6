// ABOUTME: Configuration loading and parsing for passage-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by auth.backend.
const (
	BackendLedger = "ledger"
	BackendSQLite = "sqlite"
)

// Config represents the complete passage-gateway configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// Enabled gates the forwarding engine behind login codes. When false
	// every request passes through unauthenticated.
	Enabled bool `yaml:"enabled"`

	// Backend selects the credential store: "ledger" or "sqlite".
	Backend string `yaml:"backend"`

	// CodesFile is the ledger backend's flat file path.
	CodesFile string `yaml:"codes_file"`

	// DatabasePath is the sqlite backend's database file path.
	DatabasePath string `yaml:"database_path"`

	SessionTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	SessionTimeoutRaw string `yaml:"session_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if !c.Auth.Enabled {
		return nil
	}

	switch c.Auth.Backend {
	case BackendLedger:
		if c.Auth.CodesFile == "" {
			return fmt.Errorf("auth.codes_file is required for the ledger backend")
		}
	case BackendSQLite:
		if c.Auth.DatabasePath == "" {
			return fmt.Errorf("auth.database_path is required for the sqlite backend")
		}
	case "":
		return fmt.Errorf("auth.backend is required when auth is enabled")
	default:
		return fmt.Errorf("auth.backend must be %q or %q, got %q", BackendLedger, BackendSQLite, c.Auth.Backend)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.SessionTimeoutRaw != "" {
		cfg.Auth.SessionTimeout, err = time.ParseDuration(cfg.Auth.SessionTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing session_timeout %q: %w", cfg.Auth.SessionTimeoutRaw, err)
		}
	}

	return nil
}
