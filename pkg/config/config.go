/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/pkg/capnslog"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendLog    = "log"
	BackendPebble = "pebble"
)

// Config represents the cperd configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Storage  Storage  `yaml:"storage"`
	Decode   Decode   `yaml:"decode"`
}

// Security contains security-related configuration
type Security struct {
	APIKey        string `yaml:"api_key"`
	MaxRecordSize int    `yaml:"max_record_size"` // largest accepted request body in bytes
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// Storage selects and tunes the record store
type Storage struct {
	Backend       string        `yaml:"backend"`
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	Compression   bool          `yaml:"compression"`
}

// Decode controls record decoding
type Decode struct {
	SMBIOS bool `yaml:"smbios"` // resolve memory module handles from SMBIOS
	// StrictIngest quarantines records that fail the strict check on
	// ingest instead of dropping them. Stored records are always checked.
	StrictIngest bool `yaml:"strict_ingest"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Security: Security{
			APIKey:        "auto",
			MaxRecordSize: 1 << 20,
		},
		Logging: Logging{
			Level: "INFO",
		},
		Storage: Storage{
			Backend: BackendLog,
		},
	}
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Storage.Backend {
	case BackendLog, BackendPebble:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.FsyncInterval < 0 {
		return fmt.Errorf("storage.fsync_interval must not be negative")
	}
	if c.Security.MaxRecordSize <= 0 {
		return fmt.Errorf("security.max_record_size must be positive")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses logging.level, accepting any letter case
func (c *Config) LogLevel() (capnslog.LogLevel, error) {
	level, err := capnslog.ParseLevel(strings.ToUpper(c.Logging.Level))
	if err != nil {
		return level, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// LoadConfig loads configuration from the specified path. Settings the
// file leaves out keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key and
// saves it to configPath
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./cperd.yaml"
	}

	// For Linux/macOS, use ~/.config/cperd/config.yaml
	return filepath.Join(homeDir, ".config", "cperd", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
