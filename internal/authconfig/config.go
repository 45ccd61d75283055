// Package authconfig persists which username authenticates against each index.
//
// Passwords never go in this file; they live in the keyring.
package authconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

const (
	appDir   = "indexauth"
	fileName = "auth.toml"
)

// IndexAuth is the stored entry for one index.
type IndexAuth struct {
	Username string `toml:"username"`
}

// Config maps index names to the username used for them.
type Config struct {
	mu      sync.RWMutex
	path    string
	indexes map[string]IndexAuth
}

// fileData represents the stored file format.
type fileData struct {
	Indexes map[string]IndexAuth `toml:"indexes"`
}

// DefaultPath returns <user config dir>/indexauth/auth.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, appDir, fileName), nil
}

// Load reads the auth config at path. A missing file yields an empty
// config that Store will create. An empty path uses DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	c := &Config{
		path:    path,
		indexes: make(map[string]IndexAuth),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read auth config: %w", err)
	}

	var parsed fileData
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse auth config %s: %w", path, err)
	}
	for name, entry := range parsed.Indexes {
		c.indexes[name] = entry
	}

	return c, nil
}

// Path returns the file the config is stored in.
func (c *Config) Path() string {
	return c.path
}

// AddEntry records username for the index, replacing any previous entry.
func (c *Config) AddEntry(name, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.indexes[name] = IndexAuth{Username: username}
}

// DeleteEntry removes the index and reports whether it was present.
func (c *Config) DeleteEntry(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.indexes[name]
	delete(c.indexes, name)
	return ok
}

// Username returns the username stored for the index.
func (c *Config) Username(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.indexes[name]
	return entry.Username, ok
}

// Names returns the stored index names, sorted.
func (c *Config) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.indexes))
	for name := range c.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store writes the config, creating its directory if needed. The file is
// replaced atomically.
func (c *Config) Store() error {
	c.mu.RLock()
	data, err := toml.Marshal(fileData{Indexes: c.indexes})
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal auth config: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create auth config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+fileName+".*")
	if err != nil {
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write auth config: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to write auth config: %w", err)
	}
	return nil
}
