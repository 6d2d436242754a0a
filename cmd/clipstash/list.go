package main

import (
	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/models"
	"clipstash/internal/widget"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		kind  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history items, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter models.ItemKind
			if kind != "" {
				parsed, err := models.ParseItemKind(kind)
				if err != nil {
					return err
				}
				filter = parsed
			}
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				items := make([]models.HistoryItem, 0)
				for _, it := range w.Items() {
					if filter != "" && it.Kind != filter {
						continue
					}
					items = append(items, it)
					if limit > 0 && len(items) == limit {
						break
					}
				}
				if *jsonOutput {
					return writeJSON(items)
				}
				return writeItemList(items)
			})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "kind filter (text|image|file)")
	cmd.Flags().IntVar(&limit, "limit", 0, "limit results")
	return cmd
}

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				it, err := w.Item(args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(it)
				}
				return writeItemDetail(it)
			})
		},
	}
}
