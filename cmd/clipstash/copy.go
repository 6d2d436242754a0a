package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/widget"
)

func newCopyCmd(cfg *config.Config) *cobra.Command {
	var (
		all   bool
		plain bool
	)

	cmd := &cobra.Command{
		Use:   "copy [id]",
		Short: "Copy one item, or all items combined, to stdout as rich or plain content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("pass an item id or --all")
			}
			opts := widgetOptions(cfg)
			opts.Clipboard = terminalClipboard{out: stdout, plainOnly: plain}
			return withWidgetOptions(cmd.Context(), opts, func(w *widget.Widget) error {
				var (
					outcome widget.CopyOutcome
					err     error
				)
				if all {
					outcome, err = w.CopyAll(cmd.Context())
				} else {
					outcome, err = w.CopyItem(cmd.Context(), args[0])
				}
				if err != nil {
					return err
				}
				slog.Debug("copied", "outcome", outcome.String())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "copy every item as one combined entry")
	cmd.Flags().BoolVar(&plain, "plain", false, "write plain text only")
	return cmd
}
