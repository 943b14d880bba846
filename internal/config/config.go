// Package config loads querykit settings from a YAML file, a .env file and
// QUERYKIT_ environment variables, in increasing order of precedence.
// Command-line flags override all three.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/querykit/internal/metrics"
	"github.com/roach88/querykit/internal/store"
)

const (
	// DefaultFile is read from the working directory when no path is given.
	DefaultFile = "querykit.yaml"

	// EnvFile is loaded into the environment before variables are read.
	EnvFile = ".env"

	// EnvPrefix prefixes environment overrides: QUERYKIT_DATABASE_PATH
	// sets database.path.
	EnvPrefix = "QUERYKIT"
)

// Config keys.
const (
	keyDriver    = "database.driver"
	keyPath      = "database.path"
	keySchemaDir = "schema_dir"
	keyLogLevel  = "log.level"
	keyNamespace = "metrics.namespace"
)

// Sentinel errors returned (wrapped) by Validate.
var (
	ErrDriverUnknown   = errors.New("unknown database driver")
	ErrDatabaseEmpty   = errors.New("database path is empty")
	ErrLogLevelUnknown = errors.New("unknown log level")
)

// Config is the resolved querykit configuration.
type Config struct {
	Database  DatabaseConfig `mapstructure:"database"`
	SchemaDir string         `mapstructure:"schema_dir"`
	Log       LogConfig      `mapstructure:"log"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig selects the SQLite driver and file.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: store.DriverCGO, Path: "querykit.db"},
		SchemaDir: "schema",
		Log:       LogConfig{Level: "info"},
		Metrics:   MetricsConfig{Namespace: metrics.DefaultNamespace},
	}
}

// Load resolves the configuration. An empty path reads DefaultFile if it
// exists; an explicit path must exist. A .env file in the working
// directory is loaded first when present. Variables already set in the
// environment win over .env entries.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}

	def := Default()
	v := viper.New()
	v.SetDefault(keyDriver, def.Database.Driver)
	v.SetDefault(keyPath, def.Database.Path)
	v.SetDefault(keySchemaDir, def.SchemaDir)
	v.SetDefault(keyLogLevel, def.Log.Level)
	v.SetDefault(keyNamespace, def.Metrics.Namespace)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	case fileExists(DefaultFile):
		v.SetConfigFile(DefaultFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", DefaultFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Validate checks the driver, database path and log level.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Driver != store.DriverCGO && c.Database.Driver != store.DriverPureGo {
		errs = append(errs, fmt.Errorf("%w: %q (want %s or %s)",
			ErrDriverUnknown, c.Database.Driver, store.DriverCGO, store.DriverPureGo))
	}
	if c.Database.Path == "" {
		errs = append(errs, ErrDatabaseEmpty)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level (debug, info, warn or error).
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrLogLevelUnknown, c.Log.Level)
	}
	return level, nil
}

// Store returns the store configuration.
func (c *Config) Store() store.Config {
	return store.Config{Driver: c.Database.Driver, Path: c.Database.Path}
}
