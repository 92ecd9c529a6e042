/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <file>...",
	Short: "Decode CPER records",
	Long: `Decode CPER records and print every section firmware marked valid.

Decoding is tolerant: a record whose layout breaks part way through still
prints the sections before the fault, and the fault is reported on stderr.

Examples:
  cperd decode /sys/firmware/efi/efivars/dump-type0-1-1
  cperd decode --json --indent record.bin
  cat record.bin | cperd decode -`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		decoder := container.Decoder(cfg)
		opts := renderFlags(cmd)
		out := cmd.OutOrStdout()

		failed := false
		for _, path := range args {
			raw, err := readRecord(cmd, path)
			if err != nil {
				return err
			}
			if len(args) > 1 && !opts.json {
				fmt.Fprintf(out, "==> %s <==\n", path)
			}
			if err := render(out, decoder, raw, opts); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				failed = true
			}
		}
		if failed {
			return errFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	addRenderFlags(decodeCmd)
}
