package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/models"
	"clipstash/internal/widget"
)

func newExportCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write an item's payload to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				it, err := w.Item(args[0])
				if err != nil {
					return err
				}
				var data []byte
				if it.Kind == models.KindText {
					data = []byte(it.Text)
				} else {
					h, err := w.Resolve(cmd.Context(), it.ID)
					if err != nil {
						return err
					}
					data = h.Data
				}

				if outPath == "" {
					_, err := stdout.Write(data)
					return err
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	return cmd
}
