// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// FormatDockerfile writes a multi-stage Dockerfile.
	FormatDockerfile OutputFormat = "dockerfile"
	// FormatTree writes the proof trees.
	FormatTree OutputFormat = "tree"
	// FormatJSON writes the plan as JSON.
	FormatJSON OutputFormat = "json"
	// FormatYAML writes the plan as YAML.
	FormatYAML OutputFormat = "yaml"
	// FormatTOML writes the plan as TOML.
	FormatTOML OutputFormat = "toml"

	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects the artifact written by transpile.
	OutputFormat string

	// LogLevel is the minimum level of log records.
	LogLevel string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	// It wraps ErrInvalidOutputFormat for errors.Is() compatibility.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError collects the field errors of a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the complete modus configuration.
	Config struct {
		MaxDepth     int              `json:"max_depth" mapstructure:"max_depth"`
		OutputFormat OutputFormat     `json:"output_format" mapstructure:"output_format"`
		Concurrency  int              `json:"concurrency" mapstructure:"concurrency"`
		LogLevel     LogLevel         `json:"log_level" mapstructure:"log_level"`
		Dockerfile   DockerfileConfig `json:"dockerfile" mapstructure:"dockerfile"`
		UI           UIConfig         `json:"ui" mapstructure:"ui"`
	}

	// DockerfileConfig configures the Dockerfile emitter.
	DockerfileConfig struct {
		Syntax string `json:"syntax" mapstructure:"syntax"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		Color   bool `json:"color" mapstructure:"color"`
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// OutputFormats returns every output format.
func OutputFormats() []OutputFormat {
	return []OutputFormat{FormatDockerfile, FormatTree, FormatJSON, FormatYAML, FormatTOML}
}

// IsValid returns whether the format is known.
func (f OutputFormat) IsValid() (bool, []error) {
	if slices.Contains(OutputFormats(), f) {
		return true, nil
	}
	return false, []error{&InvalidOutputFormatError{Value: f}}
}

func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: %v)", e.Value, OutputFormats())
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the level is known.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	}
	return false, []error{&InvalidLogLevelError{Value: l}}
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid checks the fields CUE cannot check for values set through the
// environment.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if ok, fieldErrs := c.OutputFormat.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if ok, fieldErrs := c.LogLevel.IsValid(); !ok {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:     64,
		OutputFormat: FormatDockerfile,
		Concurrency:  4,
		LogLevel:     LogLevelWarn,
		Dockerfile:   DockerfileConfig{Syntax: "docker/dockerfile:1"},
		UI:           UIConfig{Color: true},
	}
}
