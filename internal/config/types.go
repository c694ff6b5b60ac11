// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/invowk/textcmd/pkg/command"
	"github.com/invowk/textcmd/pkg/dispatch"
)

const (
	// ColorAuto detects terminal capabilities.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces styled output.
	ColorAlways ColorMode = "always"
	// ColorNever disables styling.
	ColorNever ColorMode = "never"

	// Log levels accepted by dispatch.log_level.
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidColorMode is returned when a ColorMode value is not recognized.
	ErrInvalidColorMode = errors.New("invalid color mode")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidModulePattern is the sentinel wrapped by InvalidModulePatternError.
	ErrInvalidModulePattern = errors.New("invalid module path pattern")
	// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorMode selects when CLI output is styled.
	ColorMode string

	// InvalidColorModeError is returned when a ColorMode value is not recognized.
	InvalidColorModeError struct {
		Value ColorMode
	}

	// LogLevel is the minimum severity forwarded to the log sink.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidModulePatternError is returned for an empty or malformed
	// doublestar pattern in modules.paths.
	InvalidModulePatternError struct {
		Pattern string
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Dispatch configures the command resolution pipeline.
		Dispatch DispatchConfig `json:"dispatch" mapstructure:"dispatch"`
		// Modules configures descriptor discovery.
		Modules ModulesConfig `json:"modules" mapstructure:"modules"`
		// Shell configures descriptor script bodies.
		Shell ShellConfig `json:"shell" mapstructure:"shell"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// DispatchConfig mirrors dispatch.Options plus the log level.
	DispatchConfig struct {
		CaseSensitive   bool                      `json:"case_sensitive" mapstructure:"case_sensitive"`
		ThrowOnError    bool                      `json:"throw_on_error" mapstructure:"throw_on_error"`
		IgnoreExtraArgs bool                      `json:"ignore_extra_args" mapstructure:"ignore_extra_args"`
		Separator       string                    `json:"separator" mapstructure:"separator"`
		DefaultRunMode  command.RunMode           `json:"default_run_mode" mapstructure:"default_run_mode"`
		MultiMatch      dispatch.MultiMatchPolicy `json:"multi_match" mapstructure:"multi_match"`
		LogLevel        LogLevel                  `json:"log_level" mapstructure:"log_level"`
	}

	// ModulesConfig configures where module descriptors are loaded from.
	ModulesConfig struct {
		// Paths are doublestar globs matching *.textcmd.cue and *.textcmd.toml files.
		Paths []string `json:"paths" mapstructure:"paths"`
		// Watch reloads changed descriptors in the REPL.
		Watch bool `json:"watch" mapstructure:"watch"`
	}

	// ShellConfig configures descriptor script bodies.
	ShellConfig struct {
		// Enabled allows descriptor commands to run their scripts.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Workdir is the script working directory; the descriptor's directory when empty.
		Workdir string `json:"workdir" mapstructure:"workdir"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose bool      `json:"verbose" mapstructure:"verbose"`
		Color   ColorMode `json:"color" mapstructure:"color"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	opts := dispatch.DefaultOptions()
	return &Config{
		Dispatch: DispatchConfig{
			CaseSensitive:   opts.CaseSensitive,
			ThrowOnError:    opts.ThrowOnError,
			IgnoreExtraArgs: opts.IgnoreExtraArgs,
			Separator:       opts.Separator,
			DefaultRunMode:  opts.DefaultRunMode,
			MultiMatch:      opts.MultiMatch,
			LogLevel:        LogLevelInfo,
		},
		Modules: ModulesConfig{
			Paths: []string{"./**/*.textcmd.{cue,toml}"},
		},
		Shell: ShellConfig{Enabled: true},
		UI:    UIConfig{Color: ColorAuto},
	}
}

// DispatchOptions converts the dispatch section to service options.
func (c *Config) DispatchOptions() dispatch.Options {
	return dispatch.Options{
		CaseSensitive:   c.Dispatch.CaseSensitive,
		ThrowOnError:    c.Dispatch.ThrowOnError,
		IgnoreExtraArgs: c.Dispatch.IgnoreExtraArgs,
		Separator:       c.Dispatch.Separator,
		DefaultRunMode:  c.Dispatch.DefaultRunMode,
		MultiMatch:      c.Dispatch.MultiMatch,
	}
}

// Validate checks the fields CUE cannot: dispatch option consistency and
// glob syntax. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	if err := c.DispatchOptions().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Dispatch.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Modules.Paths {
		if strings.TrimSpace(p) == "" || !doublestar.ValidatePattern(p) {
			errs = append(errs, &InvalidModulePatternError{Pattern: p})
		}
	}
	if err := c.UI.Color.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// String returns the string representation of the ColorMode.
func (m ColorMode) String() string { return string(m) }

// Validate returns nil if the ColorMode is one of the defined modes.
func (m ColorMode) Validate() error {
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return &InvalidColorModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidColorModeError) Error() string {
	return fmt.Sprintf("invalid color mode %q (valid: auto, always, never)", e.Value)
}

// Unwrap returns ErrInvalidColorMode.
func (e *InvalidColorModeError) Unwrap() error { return ErrInvalidColorMode }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns nil if the LogLevel is one of the defined levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Level converts to the charmbracelet/log level.
func (l LogLevel) Level() log.Level {
	switch l {
	case LogLevelDebug:
		return log.DebugLevel
	case LogLevelWarn:
		return log.WarnLevel
	case LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidModulePatternError) Error() string {
	return fmt.Sprintf("invalid module path pattern %q", e.Pattern)
}

// Unwrap returns ErrInvalidModulePattern.
func (e *InvalidModulePatternError) Unwrap() error { return ErrInvalidModulePattern }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns the sentinel and every field error.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
