// Package userconfig holds per-user CLI preferences kept in ~/.config/techshop/config.json.
// Project-level backend lists live in techshop.json instead.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "config.json"

// UserConfig is the user's preferences across projects
type UserConfig struct {
	// SelectedServerURL is the backend picked with select-server, or the only configured one
	SelectedServerURL string `json:"selected_server_url"`
	// OutputFormat is used when --output is not given
	OutputFormat string `json:"output_format,omitempty"`
}

// Path returns ~/.config/techshop/config.json
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "techshop", fileName), nil
}

// Load reads the preferences. A missing file yields empty preferences.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &UserConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if len(data) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the preferences, creating the config directory when needed
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}

// Update loads the preferences, applies fn and saves the result
func Update(fn func(cfg *UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedServer remembers the backend to use when none is given. An empty URL clears it.
func SetSelectedServer(serverURL string) error {
	return Update(func(cfg *UserConfig) { cfg.SelectedServerURL = serverURL })
}

// GetSelectedServer returns the remembered backend URL, or "" when none is selected
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServerURL, nil
}

// SetOutputFormat remembers the default output format. Callers validate the value.
func SetOutputFormat(format string) error {
	return Update(func(cfg *UserConfig) { cfg.OutputFormat = format })
}
