// Package types provides core data structures for indexauth
package types

import (
	"time"
)

// Config represents the application configuration
type Config struct {
	// Keyring backend settings
	Keyring KeyringSettings `yaml:"keyring" mapstructure:"keyring"`

	// Path of the index → username file; empty uses the user config dir
	AuthConfig string `yaml:"auth_config" mapstructure:"auth_config"`

	// Parallel index lookups for `auth list`
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// Package indexes known to the tool
	Indexes []IndexSettings `yaml:"indexes" mapstructure:"indexes"`

	// Output settings
	Output OutputSettings `yaml:"output" mapstructure:"output"`
}

// KeyringSettings selects and configures the keyring backend
type KeyringSettings struct {
	Provider string        `yaml:"provider" mapstructure:"provider"` // disabled, subprocess, native
	Command  string        `yaml:"command" mapstructure:"command"`   // agent binary for subprocess
	Service  string        `yaml:"service" mapstructure:"service"`   // collection name for native
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`   // 0 disables the deadline
}

// IndexSettings names a package index
type IndexSettings struct {
	Name string `yaml:"name" mapstructure:"name"`
	URL  string `yaml:"url" mapstructure:"url"`
}

// OutputSettings holds output configuration
type OutputSettings struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Color   bool `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Keyring: KeyringSettings{
			Provider: "subprocess",
			Command:  "keyring",
			Service:  "indexauth",
		},
		Concurrency: 4,
		Indexes:     []IndexSettings{},
		Output: OutputSettings{
			Verbose: false,
			Color:   true,
		},
	}
}
