package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No configs yet, run `comicwalk config init`.")
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, c := range list {
			active := ""
			if c.Active {
				active = "yes"
			}
			rows = append(rows, []string{c.Label, c.Path, active})
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Label", "Path", "Active"}, rows))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
