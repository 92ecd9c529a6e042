/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with a generated API key",
	Long: `Write a configuration file with default settings and a freshly generated
API key, and create the data directory.

Examples:
  cperd init
  cperd init --config ./cperd.yaml --data-dir /var/lib/cperd`,
	Args: cobra.NoArgs,
	// The config file may not exist yet, so skip the root's loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if config.ConfigExists(configPath) && !force {
			cmd.Printf("Configuration already exists at %s. Use --force to overwrite.\n", configPath)
			return nil
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		cmd.Printf("Configuration written to %s\n", configPath)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)
		if printKey {
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		}
		cmd.Printf("\nYou can now start the server with:\n")
		cmd.Printf("  cperd serve --config %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}
