/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/config"
)

const serviceName = "cperd.service"

// unitPath is where the systemd unit is installed
var unitPath = "/etc/systemd/system/" + serviceName

// runCommand runs a system command with the CLI's output streams
var runCommand = func(cmd *cobra.Command, command string, args ...string) error {
	c := exec.Command(command, args...)
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage cperd as a systemd service",
	Long: `Manage the cperd API server as a systemd service.

The unit runs "cperd serve" with the configuration file used at install
time and may write only to the data directory.`,
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install cperd as a systemd service",
	Long: `Install cperd as a systemd service.

This will:
- Create a configuration with a generated API key if none exists
- Write the systemd unit file
- Enable and optionally start the service

Examples:
  cperd service install
  cperd service install --data-dir /var/lib/cperd --user cperd`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		configPath, _ := cmd.Flags().GetString("config")
		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		user, _ := cmd.Flags().GetString("user")
		startNow, _ := cmd.Flags().GetBool("start")

		if !config.ConfigExists(configPath) {
			if cfg, err = config.BootstrapConfig(configPath, cfg.DataDir); err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			cmd.Printf("Created new configuration at %s\n", configPath)
		}

		binary, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate cperd binary: %w", err)
		}
		unit := systemdUnit(cfg, configPath, user, binary)
		if err := os.WriteFile(unitPath, []byte(unit), 0644); err != nil {
			return fmt.Errorf("failed to write systemd unit: %w", err)
		}

		if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}
		if err := runCommand(cmd, "systemctl", "enable", serviceName); err != nil {
			return fmt.Errorf("failed to enable service: %w", err)
		}
		if startNow {
			if err := runCommand(cmd, "systemctl", "start", serviceName); err != nil {
				return fmt.Errorf("failed to start service: %w", err)
			}
		}

		cmd.Printf("Service: %s\n", serviceName)
		cmd.Printf("Config: %s\n", configPath)
		cmd.Printf("Data: %s\n", cfg.DataDir)
		cmd.Printf("Listening on: %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("To view logs: journalctl -u %s -f\n", serviceName)
		return nil
	},
}

// uninstallServiceCmd represents the service uninstall command
var uninstallServiceCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the cperd service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = runCommand(cmd, "systemctl", "stop", serviceName) // Ignore errors if already stopped
		if err := runCommand(cmd, "systemctl", "disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}

		if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := runCommand(cmd, "systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload systemd: %w", err)
		}

		cmd.Printf("cperd service uninstalled\n")
		cmd.Printf("Note: configuration and stored records were not removed\n")
		return nil
	},
}

// statusServiceCmd represents the service status command
var statusServiceCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cperd service status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "systemctl", "status", serviceName)
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(uninstallServiceCmd)
	serviceCmd.AddCommand(statusServiceCmd)

	installServiceCmd.Flags().String("user", "cperd", "User to run the service as")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")
}

// systemdUnit renders the unit file running binary as user
func systemdUnit(cfg *config.Config, configPath, user, binary string) string {
	return fmt.Sprintf(`[Unit]
Description=cperd CPER record server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadOnlyPaths=%s /sys/firmware

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, cfg.DataDir, filepath.Dir(configPath))
}
