package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coreos/pkg/capnslog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Equal(t, "auto", config.Security.APIKey)
	assert.Equal(t, 1<<20, config.Security.MaxRecordSize)
	assert.Equal(t, "INFO", config.Logging.Level)
	assert.Equal(t, BackendLog, config.Storage.Backend)
	assert.False(t, config.Decode.SMBIOS)
	assert.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("load valid config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expectedConfig := &Config{
			DataDir: "/custom/data",
			Port:    9000,
			Bind:    "0.0.0.0",
			Security: Security{
				APIKey:        "test-api-key",
				MaxRecordSize: 4096,
			},
			Logging: Logging{
				Level: "debug",
			},
			Storage: Storage{
				Backend:       BackendPebble,
				FsyncInterval: 250 * time.Millisecond,
				Compression:   true,
			},
			Decode: Decode{
				SMBIOS:       true,
				StrictIngest: true,
			},
		}

		err := SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing settings keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "partial.yaml")
		err := os.WriteFile(configPath, []byte("port: 9100\nstorage:\n  fsync_interval: 2s\n"), 0600)
		require.NoError(t, err)

		config, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 9100, config.Port)
		assert.Equal(t, 2*time.Second, config.Storage.FsyncInterval)
		assert.Equal(t, BackendLog, config.Storage.Backend)
		assert.Equal(t, "./data", config.DataDir)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "pebble backend", mutate: func(c *Config) { c.Storage.Backend = BackendPebble }},
		{name: "lowercase level", mutate: func(c *Config) { c.Logging.Level = "warning" }},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, wantErr: "data_dir"},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port"},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "sqlite" }, wantErr: "unknown storage backend"},
		{name: "negative fsync", mutate: func(c *Config) { c.Storage.FsyncInterval = -time.Second }, wantErr: "fsync_interval"},
		{name: "zero record size", mutate: func(c *Config) { c.Security.MaxRecordSize = 0 }, wantErr: "max_record_size"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLogLevel(t *testing.T) {
	config := DefaultConfig()
	config.Logging.Level = "debug"

	level, err := config.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, capnslog.DEBUG, level)
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	config := DefaultConfig()

	err := SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)

	// Verify the key is generated, not "auto", and valid hex
	assert.NotEqual(t, "auto", config.Security.APIKey)
	key, err := hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)
	assert.Len(t, key, 32)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "cperd")
	assert.Contains(t, path, "config.yaml")
}

func TestConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err := os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLKeys(t *testing.T) {
	data, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	for _, key := range []string{"data_dir", "port", "bind", "security", "logging", "storage", "decode"} {
		assert.Contains(t, raw, key)
	}
	storage, ok := raw["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "log", storage["backend"])
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	// Try to save to a directory that can't be created
	invalidPath := "/invalid/path/that/cannot/be/created/config.yaml"

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
