package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Read a stored record",
	Long: `Read a stored record by ID. Without --decode the raw record bytes are
written to stdout or to --output.

Examples:
  cperd get 0x6553f10000000001 --output record.bin
  cperd get 0x6553f10000000001 --decode --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseRecordID(args[0])
		if err != nil {
			return err
		}
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		records, err := container.OpenStore(cfg)
		if err != nil {
			return err
		}
		defer records.Close()

		raw, err := records.Read(id)
		if err != nil {
			return fmt.Errorf("failed to read record %#x: %w", id, err)
		}

		if decode, _ := cmd.Flags().GetBool("decode"); decode {
			return render(cmd.OutOrStdout(), container.Decoder(cfg), raw, renderFlags(cmd))
		}

		if output, _ := cmd.Flags().GetString("output"); output != "" {
			if err := os.WriteFile(output, raw, 0600); err != nil {
				return fmt.Errorf("failed to write record: %w", err)
			}
			return nil
		}
		_, err = cmd.OutOrStdout().Write(raw)
		return err
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("decode", false, "Decode the record instead of writing raw bytes")
	getCmd.Flags().StringP("output", "o", "", "Write the raw record to this file")
	addRenderFlags(getCmd)
}
