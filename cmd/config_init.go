package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
)

var configInitCmd = &cobra.Command{
	Use:   "init [label]",
	Short: "Create a config profile with default values (Default when no label is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 && args[0] != config.DefaultLabel {
			path, err := config.CreateEmptyConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Config created at:", path)
			fmt.Fprintf(out, "Activate it with `comicwalk config switch %s`.\n", args[0])
			return nil
		}

		path := config.ProfilePath(config.DefaultLabel)
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintln(out, "Configuration already exists at:")
			fmt.Fprintln(out, "  ", path)
			fmt.Fprintln(out, "Use `comicwalk config reset` to recreate it.")
			return nil
		}

		fmt.Fprintln(out, "Default configuration:")
		config.DefaultConfig().Print(out)
		fmt.Fprintln(out)

		if isTerminal(os.Stdin) {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Create Default config at %s", path),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		path, err := config.InitDefaultConfig()
		if err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Fprintln(out, "Config created at:", path)
		fmt.Fprintln(out, "This config is now active (label: Default).")

		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
