// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// LogLevelDebug logs everything, including per-script load details.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs reloads, additions and removals.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs rejected registrations and skipped files.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs script failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfigValue is the sentinel wrapped by InvalidConfigValueError.
	ErrInvalidConfigValue = errors.New("invalid config value")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level written by the runtime logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigValueError reports a single out-of-range field.
	InvalidConfigValueError struct {
		Field  string
		Reason string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ScriptsDir is scanned for script modules.
		ScriptsDir string `json:"scripts_dir" mapstructure:"scripts_dir"`
		// ModulesDir holds shared Lua modules reachable through require.
		ModulesDir string `json:"modules_dir" mapstructure:"modules_dir"`
		// ResourcesDir is published to scripts for fonts, images and the like.
		ResourcesDir string `json:"resources_dir" mapstructure:"resources_dir"`
		// Extension selects which files in ScriptsDir are scripts.
		Extension string `json:"extension" mapstructure:"extension"`
		// EnableOnLoad decides whether discovered scripts start enabled.
		EnableOnLoad bool `json:"enable_on_load" mapstructure:"enable_on_load"`
		// FrameRate is the number of ticks per second of the render driver.
		FrameRate int `json:"frame_rate" mapstructure:"frame_rate"`
		// ExecBudget bounds a single script run; zero disables the bound.
		ExecBudget time.Duration `json:"exec_budget" mapstructure:"exec_budget"`
		// LogLevel is the minimum log level.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// ReloadOnSave configures change detection.
		ReloadOnSave ReloadOnSaveConfig `json:"reload_on_save" mapstructure:"reload_on_save"`
	}

	// ReloadOnSaveConfig configures how edited scripts are picked up.
	ReloadOnSaveConfig struct {
		// Enabled turns on modification time polling.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// PollInterval is the minimum time between two polls.
		PollInterval time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
		// Watch adds an fsnotify watcher on the scripts directory.
		Watch bool `json:"watch" mapstructure:"watch"`
		// Debounce is the quiet period before watcher events are forwarded.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}
)

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error {
	return ErrInvalidLogLevel
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l to a logger level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Error implements the error interface for InvalidConfigValueError.
func (e *InvalidConfigValueError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfigValue for errors.Is() compatibility.
func (e *InvalidConfigValueError) Unwrap() error { return ErrInvalidConfigValue }

// IsValid returns whether the ReloadOnSaveConfig has valid fields.
func (c ReloadOnSaveConfig) IsValid() (bool, []error) {
	var errs []error
	if c.PollInterval < 0 {
		errs = append(errs, &InvalidConfigValueError{Field: "reload_on_save.poll_interval", Reason: "must not be negative"})
	}
	if c.Debounce < 0 {
		errs = append(errs, &InvalidConfigValueError{Field: "reload_on_save.debounce", Reason: "must not be negative"})
	}
	return len(errs) == 0, errs
}

// IsValid returns whether the Config has valid fields.
// It checks the scalar fields and delegates to LogLevel.IsValid() and
// ReloadOnSave.IsValid().
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.ScriptsDir) == "" {
		errs = append(errs, &InvalidConfigValueError{Field: "scripts_dir", Reason: "must not be empty"})
	}
	if strings.Trim(c.Extension, ". ") == "" {
		errs = append(errs, &InvalidConfigValueError{Field: "extension", Reason: "must not be empty"})
	}
	if c.FrameRate <= 0 {
		errs = append(errs, &InvalidConfigValueError{Field: "frame_rate", Reason: "must be positive"})
	}
	if c.ExecBudget < 0 {
		errs = append(errs, &InvalidConfigValueError{Field: "exec_budget", Reason: "must not be negative"})
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.ReloadOnSave.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// FrameInterval is the time between two ticks at FrameRate.
func (c Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.FrameRate)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ScriptsDir:   "uif_scripts",
		ModulesDir:   "uif_modules",
		ResourcesDir: "uif_resources",
		Extension:    ".lua",
		EnableOnLoad: true,
		FrameRate:    60,
		ExecBudget:   250 * time.Millisecond,
		LogLevel:     LogLevelInfo,
		ReloadOnSave: ReloadOnSaveConfig{
			Enabled:      false,
			PollInterval: time.Second,
			Watch:        false,
			Debounce:     200 * time.Millisecond,
		},
	}
}
