/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/coreos/pkg/capnslog"
	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/config"
	"github.com/ssargent/cperd/pkg/di"
)

var plog = capnslog.NewPackageLogger("github.com/ssargent/cperd", "cmd")

type contextKey string

const configKey contextKey = "config"

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cperd",
	Short: "cperd - UEFI CPER hardware error records",
	Long: `cperd decodes UEFI Common Platform Error Records (CPER), validates them,
and keeps a store of records indexed by record ID.

Records are read as raw bytes, for example from /sys/firmware/efi or an
ERST dump. Use "-" to read a record from standard input.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		capnslog.SetFormatter(capnslog.NewPrettyFormatter(cmd.ErrOrStderr(), false))

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		level, err := cfg.LogLevel()
		if err != nil {
			return err
		}
		capnslog.SetGlobalLogLevel(level)

		if container == nil {
			SetContainer(di.NewContainer())
		}

		// Store in command context
		cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the record store (overrides config)")
}

// loadConfig reads the config file named by --config, falling back to
// defaults when the file does not exist. --data-dir overrides data_dir.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if config.ConfigExists(configPath) {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		plog.Debugf("loaded configuration from %s", configPath)
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// configFrom returns the configuration PersistentPreRunE stored on cmd
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not found in context")
	}
	return cfg, nil
}

// parseRecordID accepts decimal and 0x-prefixed hex record IDs
func parseRecordID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record ID %q: %w", s, err)
	}
	return id, nil
}
