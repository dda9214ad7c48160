package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP server settings
	Server ServerConfig `yaml:"server"`

	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Rate schedule settings
	Rates RatesConfig `yaml:"rates"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080"
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type RatesConfig struct {
	// Path to a YAML rate schedule. When empty or missing, the built-in
	// statutory schedule is used.
	File string `yaml:"file"`
}

// DefaultConfigPath returns ~/.config/arrears/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "arrears", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "arrears", "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".config", "arrears", "arrears.db"),
		},
		Rates: RatesConfig{
			File: "",
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the database directory if needed.
func (c *Config) EnsureDirectories() error {
	return os.MkdirAll(filepath.Dir(c.Database.Path), 0755)
}
