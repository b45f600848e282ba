package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (OCTONOTE_SERVER_PORT, ...).
const EnvPrefix = "OCTONOTE"

// DefaultFileName is looked up in the working directory when no --config is given.
const DefaultFileName = "octonote"

// Config represents the complete octonote configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Locks   LocksConfig   `mapstructure:"locks"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// StaticDir, when set, is served at / for the browser client.
	StaticDir              string `mapstructure:"static_dir"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// StorageConfig controls where notes and users are persisted
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	// Versioning commits every note write to a Git repository in the notes directory.
	Versioning bool `mapstructure:"versioning"`
}

// LocksConfig controls edit lock expiry
type LocksConfig struct {
	// IdleTimeoutMinutes drops locks not refreshed for this long (0 means never).
	IdleTimeoutMinutes   int `mapstructure:"idle_timeout_minutes"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   51828,
			ShutdownTimeoutSeconds: 5,
		},
		Storage: StorageConfig{
			DataDir: "/data/octonote",
		},
		Locks: LocksConfig{
			SweepIntervalSeconds: 60,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeout returns the graceful shutdown window as a time.Duration
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// IdleTimeout returns the lock idle timeout as a time.Duration (0 means disabled)
func (c *LocksConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// SweepInterval returns how often expired locks are swept
func (c *LocksConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("server.host", defaults.Server.Host)
	v.SetDefault("server.port", defaults.Server.Port)
	v.SetDefault("server.static_dir", defaults.Server.StaticDir)
	v.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)

	v.SetDefault("storage.data_dir", defaults.Storage.DataDir)
	v.SetDefault("storage.versioning", defaults.Storage.Versioning)

	v.SetDefault("locks.idle_timeout_minutes", defaults.Locks.IdleTimeoutMinutes)
	v.SetDefault("locks.sweep_interval_seconds", defaults.Locks.SweepIntervalSeconds)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)
}

// New returns a viper instance with defaults, environment overrides and,
// if present, the config file. An explicit configFile must exist; the
// implicit ./octonote.yaml is optional.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}
