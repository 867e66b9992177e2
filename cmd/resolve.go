package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/comicwalk/internal/config"
)

func init() {
	var showBrowser bool

	resolveCmd := &cobra.Command{
		Use:   "resolve <episode-url>",
		Short: "Print the image URLs of one episode, in reading order",
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

			res, err := a.resolve(ctx, adapter, doc, args[0])
			out := cmd.OutOrStdout()
			for _, u := range res.Images {
				fmt.Fprintln(out, u)
			}
			if err != nil {
				return err
			}

			entry := a.log.WithFields(logrus.Fields{
				"site":     adapter.Name(),
				"images":   len(res.Images),
				"sections": len(res.Sections),
				"stop":     res.Stop.String(),
			})
			if res.Note != "" {
				entry = entry.WithField("note", res.Note)
			}
			if res.Partial() {
				entry.Warn("episode resolved partially")
			} else {
				entry.Info("episode resolved")
			}

			return nil
		},
	}

	resolveCmd.Flags().BoolVar(&showBrowser, "show-browser", false, "run the rendering browser with a visible window")
	rootCmd.AddCommand(resolveCmd)
}
