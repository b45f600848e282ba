package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "server.port")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the list of valid log formats
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", c.Server.Port, "must be between 0 and 65535"})
	}
	if c.Server.ShutdownTimeoutSeconds < 0 {
		errs = append(errs, ValidationError{"server.shutdown_timeout_seconds", c.Server.ShutdownTimeoutSeconds, "must not be negative"})
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		errs = append(errs, ValidationError{"storage.data_dir", c.Storage.DataDir, "is required"})
	}
	if c.Locks.IdleTimeoutMinutes < 0 {
		errs = append(errs, ValidationError{"locks.idle_timeout_minutes", c.Locks.IdleTimeoutMinutes, "must not be negative"})
	}
	if c.Locks.IdleTimeoutMinutes > 0 && c.Locks.SweepIntervalSeconds <= 0 {
		errs = append(errs, ValidationError{"locks.sweep_interval_seconds", c.Locks.SweepIntervalSeconds, "must be positive when locks expire"})
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		errs = append(errs, ValidationError{"logging.format", c.Logging.Format, "must be one of " + strings.Join(ValidLogFormats(), ", ")})
	}

	return errs
}
