package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
	"github.com/brogergvhs/comicwalk/internal/episodes"
	"github.com/brogergvhs/comicwalk/internal/providers"
)

func init() {
	var (
		pick        bool
		showBrowser bool
	)

	episodesCmd := &cobra.Command{
		Use:   "episodes <series-url>",
		Short: "List the episodes of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Options{ShowBrowser: showBrowser})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			adapter, doc, err := a.open(ctx, args[0])
			if err != nil {
				return err
			}

			title, err := adapter.Title(doc, args[0])
			if errors.Is(err, providers.ErrTitleNotFound) {
				title = "Untitled"
			} else if err != nil {
				return err
			}

			eps, err := adapter.Episodes(ctx, doc, args[0])
			if err != nil {
				return err
			}
			items := episodes.Number(eps)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %d episodes)\n", title, adapter.Name(), len(items))
			if len(items) == 0 {
				return nil
			}

			if !pick {
				rows := make([][]string, 0, len(items))
				for _, it := range items {
					rows = append(rows, []string{strconv.Itoa(it.Number), it.Title, it.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Title", "URL"}, rows, 1))
				return nil
			}

			if !isTerminal(os.Stdin) {
				return errors.New("--pick needs an interactive terminal")
			}

			prompt := promptui.Select{
				Label: "Select episode",
				Items: items,
				Size:  15,
				Templates: &promptui.SelectTemplates{
					Active:   "▸ {{ .Number }}. {{ .Title | cyan }}",
					Inactive: "  {{ .Number }}. {{ .Title }}",
					Selected: "{{ .Number }}. {{ .Title }}",
				},
			}
			idx, _, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("selection cancelled")
			}

			chosen := items[idx]
			_, epDoc, err := a.open(ctx, chosen.URL)
			if err != nil {
				return err
			}
			res, err := a.resolve(ctx, adapter, epDoc, chosen.URL)
			for _, u := range res.Images {
				fmt.Fprintln(out, u)
			}
			if err != nil {
				return err
			}
			if res.Partial() {
				a.log.WithField("note", res.Note).Warn("episode resolved partially")
			}

			return nil
		},
	}

	episodesCmd.Flags().BoolVar(&pick, "pick", false, "choose an episode interactively and print its images")
	episodesCmd.Flags().BoolVar(&showBrowser, "show-browser", false, "run the rendering browser with a visible window")
	rootCmd.AddCommand(episodesCmd)
}
