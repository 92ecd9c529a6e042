package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored record IDs",
	Args:  cobra.NoArgs,
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

		ids, err := records.IDs(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%#x\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
