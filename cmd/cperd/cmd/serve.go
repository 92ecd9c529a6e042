/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the cperd REST API server.

Every route under /api/v1 requires the API key from the configuration (or
--api-key) in the X-API-Key header. Prometheus metrics are served without
authentication on /metrics.

Examples:
  cperd serve
  cperd serve --api-key=mysecretkey --port=9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		// Override config with command line flags if provided
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			cfg.Bind, _ = cmd.Flags().GetString("bind")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cfg.Security.APIKey == "" || cfg.Security.APIKey == "auto" {
			return fmt.Errorf("no API key configured: run 'cperd init' or pass --api-key")
		}

		records, err := container.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer records.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverConfig := api.ServerConfig{
			Port:          cfg.Port,
			Bind:          cfg.Bind,
			APIKey:        cfg.Security.APIKey,
			MaxRecordSize: int64(cfg.Security.MaxRecordSize),
		}
		starter := container.GetServerFactory().CreateServerStarter()
		if err := starter.StartServer(ctx, records, container.Decoder(cfg), serverConfig); err != nil {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
	serveCmd.Flags().String("api-key", "", "API key for client authentication")
}
