package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                   int    `toml:"port"`
	AllowedOrigin          string `toml:"allowed_origin"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path           string `toml:"path"`
	BusyTimeoutMS  int    `toml:"busy_timeout_ms"`
	QueryTimeoutMS int    `toml:"query_timeout_ms"`
}

// AuthConfig holds password hashing settings.
type AuthConfig struct {
	BcryptCost int `toml:"bcrypt_cost"`
}

// ShutdownTimeout returns the graceful shutdown window.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// BusyTimeout returns how long SQLite waits on a lock.
func (c DatabaseConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// QueryTimeout returns the bound applied to every store operation.
func (c DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutMS) * time.Millisecond
}

const defaultConfigContent = `[server]
port = 3000
allowed_origin = ""               # CORS origin for a separately hosted frontend; empty disables CORS
shutdown_timeout_seconds = 10

[database]
path = "sports_app.db"            # Or set SPORTS_DB_PATH env var
busy_timeout_ms = 5000
query_timeout_ms = 5000

[auth]
bcrypt_cost = 12                  # Raising it re-hashes passwords on next login
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config file: unknown key %q", undecoded[0].String())
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("database", "path") && cfg.Database.Path == "" {
		return errors.New("invalid database.path: must not be empty")
	}
	if md.IsDefined("database", "busy_timeout_ms") && cfg.Database.BusyTimeoutMS < 1 {
		return fmt.Errorf("invalid database.busy_timeout_ms %d: must be >= 1", cfg.Database.BusyTimeoutMS)
	}
	if md.IsDefined("database", "query_timeout_ms") && cfg.Database.QueryTimeoutMS < 1 {
		return fmt.Errorf("invalid database.query_timeout_ms %d: must be >= 1", cfg.Database.QueryTimeoutMS)
	}
	if md.IsDefined("auth", "bcrypt_cost") {
		if err := validateCost(cfg.Auth.BcryptCost); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.ShutdownTimeoutSeconds == 0 {
		cfg.Server.ShutdownTimeoutSeconds = 10
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "sports_app.db"
	}
	if cfg.Database.BusyTimeoutMS == 0 {
		cfg.Database.BusyTimeoutMS = 5000
	}
	if cfg.Database.QueryTimeoutMS == 0 {
		cfg.Database.QueryTimeoutMS = 5000
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 12
	}
}

// applyEnvOverrides applies environment variable overrides:
//   - SPORTS_DB_PATH replaces database.path
//   - PORT replaces server.port
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SPORTS_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeoutSeconds < 1 {
		return fmt.Errorf("invalid server.shutdown_timeout_seconds %d: must be >= 1", cfg.Server.ShutdownTimeoutSeconds)
	}
	if cfg.Database.BusyTimeoutMS < 1 {
		return fmt.Errorf("invalid database.busy_timeout_ms %d: must be >= 1", cfg.Database.BusyTimeoutMS)
	}
	if cfg.Database.QueryTimeoutMS < 1 {
		return fmt.Errorf("invalid database.query_timeout_ms %d: must be >= 1", cfg.Database.QueryTimeoutMS)
	}
	if err := validateCost(cfg.Auth.BcryptCost); err != nil {
		return err
	}
	if cfg.Auth.BcryptCost < bcrypt.DefaultCost {
		slog.Warn("auth.bcrypt_cost is below the bcrypt default", "cost", cfg.Auth.BcryptCost, "default", bcrypt.DefaultCost)
	}
	return nil
}

func validateCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("invalid auth.bcrypt_cost %d: must be between %d and %d", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
