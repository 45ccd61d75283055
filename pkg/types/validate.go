// Package types provides core data structures for indexauth
package types

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// HasErrors returns true if there are any validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// ConfigValidator validates configuration settings
type ConfigValidator struct {
	errors ValidationErrors
}

// NewConfigValidator creates a new config validator
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate performs comprehensive validation of the config
func (v *ConfigValidator) Validate(config *Config) ValidationErrors {
	v.errors = nil

	v.validateKeyringSettings(config.Keyring)
	v.validateIndexes(config.Indexes)

	if config.Concurrency < 1 {
		v.addError("concurrency", "must be at least 1", config.Concurrency)
	}
	if config.Concurrency > 64 {
		v.addError("concurrency", "should not exceed 64 concurrent keyring processes", config.Concurrency)
	}

	return v.errors
}

func (v *ConfigValidator) addError(field, message string, value interface{}) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

func (v *ConfigValidator) validateKeyringSettings(k KeyringSettings) {
	switch strings.ToLower(strings.TrimSpace(k.Provider)) {
	case "disabled", "native":
	case "subprocess":
		if strings.TrimSpace(k.Command) == "" {
			v.addError("keyring.command", "required for the subprocess provider", k.Command)
		}
	default:
		v.addError("keyring.provider", "must be one of disabled, subprocess, native", k.Provider)
	}

	if k.Timeout < 0 {
		v.addError("keyring.timeout", "cannot be negative", k.Timeout)
	}
	if k.Timeout > 0 && k.Timeout < 100*time.Millisecond {
		v.addError("keyring.timeout", "too short for a keyring agent to start", k.Timeout)
	}
}

func (v *ConfigValidator) validateIndexes(indexes []IndexSettings) {
	seen := make(map[string]bool)
	for i, idx := range indexes {
		field := fmt.Sprintf("indexes[%d]", i)

		if idx.Name == "" {
			v.addError(field+".name", "should not be empty", idx.Name)
		} else if seen[idx.Name] {
			v.addError(field+".name", "duplicate index name", idx.Name)
		}
		seen[idx.Name] = true

		u, err := url.Parse(idx.URL)
		if err != nil || !u.IsAbs() || u.Hostname() == "" {
			v.addError(field+".url", "must be an absolute URL with a host", idx.URL)
			continue
		}
		if _, ok := u.User.Password(); ok {
			v.addError(field+".url", "must not embed a password", idx.Name)
		}
	}
}
