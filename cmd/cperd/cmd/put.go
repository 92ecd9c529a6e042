/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <file>...",
	Short: "Store CPER records",
	Long: `Validate CPER records strictly and store the ones that pass, each under a
new record ID.

Example:
  cperd put record.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		records, err := container.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer records.Close()

		out := cmd.OutOrStdout()
		failed := false
		for _, path := range args {
			raw, err := readRecord(cmd, path)
			if err != nil {
				return err
			}
			id, err := records.Write(raw)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Fprintf(out, "%s: stored as %#x\n", path, id)
		}
		if failed {
			return errFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
