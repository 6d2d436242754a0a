package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/widget"
)

func newRmCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id> [<id>...]",
		Short: "Remove items and their stored payloads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				removed := make([]string, 0, len(args))
				for _, id := range args {
					if err := w.Delete(id); err != nil {
						return err
					}
					removed = append(removed, id)
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"removed": removed})
				}
				for _, id := range removed {
					if err := writePlain("removed %s\n", id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newClearCmd(cfg *config.Config) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every item and stored payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				count := len(w.Items())
				if err := w.Clear(); err != nil {
					return err
				}
				return writePlain("cleared %d item(s)\n", count)
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the history")
	return cmd
}
