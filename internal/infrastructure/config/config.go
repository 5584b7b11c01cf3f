// Package config loads and persists the tool's configuration: default
// source and destination directories for catalog and packaging runs, plus
// the debug switch. Values come from the config file with environment
// variable overrides on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Environment variables that override file configuration
const (
	EnvSourceDir = "PPT_SOURCE_DIR"
	EnvDestDir   = "PPT_DEST_DIR"
	EnvDebug     = "PPT_DEBUG"
)

// Config holds the tool's persisted settings
type Config struct {
	SourceDir string `json:"source_dir"`
	DestDir   string `json:"dest_dir"`
	Debug     bool   `json:"debug"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		SourceDir: ".",
		DestDir:   ".",
		Debug:     false,
	}
}

// DefaultPath returns the config file location,
// $HOME/.config/ppt/config.json
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ppt", "config.json"), nil
}

// Load reads the config file (defaults when absent) and applies
// environment overrides
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config.applyEnvOverrides()
	return config, nil
}

// applyEnvOverrides layers environment variables over file values
func (c *Config) applyEnvOverrides() {
	if value := os.Getenv(EnvSourceDir); value != "" {
		c.SourceDir = value
	}
	if value := os.Getenv(EnvDestDir); value != "" {
		c.DestDir = value
	}
	if value := os.Getenv(EnvDebug); value != "" {
		if debug, err := strconv.ParseBool(value); err == nil {
			c.Debug = debug
		}
	}
}

// Save writes the configuration to the default path, creating the config
// directory if needed
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to an explicit path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configured directories are usable
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source directory cannot be empty")
	}
	if c.DestDir == "" {
		return fmt.Errorf("destination directory cannot be empty")
	}
	return nil
}
