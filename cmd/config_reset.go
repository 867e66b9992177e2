package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
)

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the active config with default values",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.ActiveConfigPath()
		if err != nil {
			return fmt.Errorf("%w: run `comicwalk config init` first", err)
		}

		if err := config.SaveYAML(config.DefaultConfig(), path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Reset active config: %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configResetCmd)
}
