// Package config handles NeuraBot's user configuration. Settings live in
// a JSON file under the config directory; a project-local .neurabot/
// directory takes precedence over the one in the user's home.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName        = ".neurabot"
	configFileName = "config.json"
	dbFileName     = "neurabot.db"
)

// Config is the persisted user configuration.
type Config struct {
	// ServerURL is the base URL of the chat backend.
	ServerURL string `json:"server_url"`
	// Mode is the default chat mode sent with every message.
	Mode string `json:"mode"`
	// DataDir overrides where the database lives. Empty means the config
	// directory.
	DataDir string `json:"data_dir,omitempty"`
	// ExportDir is where chat exports are written. Empty means the
	// current directory.
	ExportDir string `json:"export_dir,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		ServerURL: "http://localhost:5000",
		Mode:      "general",
	}
}

// Dir returns the active config directory. A .neurabot directory in the
// working directory wins over ~/.neurabot.
func Dir() string {
	if info, err := os.Stat(dirName); err == nil && info.IsDir() {
		return dirName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), configFileName)
}

// DBPath returns the database location for cfg.
func (c *Config) DBPath() string {
	dir := c.DataDir
	if dir == "" {
		dir = Dir()
	}
	return filepath.Join(dir, dbFileName)
}

// Load reads the config file, falling back to defaults when it does not
// exist. Unknown fields are preserved only until the next Save.
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads a config file at an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config file, creating the config directory if needed.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes a config file to an explicit path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
