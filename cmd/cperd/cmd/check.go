/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/cperd/pkg/cper"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Strictly validate CPER records",
	Long: `Strictly validate the layout of CPER records without decoding sections.

A record passes only if its sections exactly fill the declared data length.
The command exits non-zero when any record fails.

Example:
  cperd check record.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := false
		for _, path := range args {
			raw, err := readRecord(cmd, path)
			if err != nil {
				return err
			}
			if err := cper.Check(raw); err != nil {
				fmt.Fprintf(out, "%s: %v\n", path, err)
				failed = true
				continue
			}
			fmt.Fprintf(out, "%s: ok\n", path)
		}
		if failed {
			return errFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
