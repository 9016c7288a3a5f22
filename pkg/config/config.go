// Package config persists zapctl's credentials and the share code book.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// APIConfig holds the pishock.com account credentials.
type APIConfig struct {
	Username string `yaml:"username"`
	Key      string `yaml:"key"` //nolint:gosec // configuration field, not a hardcoded secret
}

// Config is the top-level zapctl configuration: API credentials plus the
// saved share codes, each under a user-chosen name.
type Config struct {
	API        APIConfig         `yaml:"api"`
	Sharecodes map[string]string `yaml:"sharecodes"`
}

// Load reads a YAML config file. A missing file yields an empty Config,
// not an error; zapctl init creates it. Environment variables referenced
// as ${VAR} or $VAR in the YAML are expanded before parsing, so the API
// key can live in the environment (e.g. loaded from a .env file) rather
// than on disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{Sharecodes: map[string]string{}}, nil
		}

		return Config{}, fmt.Errorf("config: load: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}

	if cfg.Sharecodes == nil {
		cfg.Sharecodes = map[string]string{}
	}

	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}

	return nil
}

// HasCredentials reports whether both username and API key are set.
func (c Config) HasCredentials() bool {
	return c.API.Username != "" && c.API.Key != ""
}

// CodeNames returns the saved share code names in sorted order.
func (c Config) CodeNames() []string {
	names := make([]string, 0, len(c.Sharecodes))
	for name := range c.Sharecodes {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
