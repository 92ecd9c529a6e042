package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored record",
	Long: `Delete a stored record by ID.

Example:
  cperd delete 0x6553f10000000001`,
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

		if err := records.Delete(id); err != nil {
			return fmt.Errorf("failed to delete record %#x: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %#x\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
