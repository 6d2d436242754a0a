package main

import (
	"os"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/widget"
)

type importOutput struct {
	ingestOutput `yaml:",inline"`
	Dropped      int `json:"dropped" yaml:"dropped"`
}

func newImportLegacyCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Import a legacy history export (JSON or YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				res, dropped, err := w.ImportLegacy(cmd.Context(), f)
				if err != nil {
					return err
				}
				out := importOutput{ingestOutput: newIngestOutput(res, w.Items()), Dropped: dropped}
				if *jsonOutput {
					return writeJSON(out)
				}
				if err := writeIngestResult(out.ingestOutput, false); err != nil {
					return err
				}
				if dropped > 0 {
					return writePlain("dropped %d entry(ies) without a recoverable payload\n", dropped)
				}
				return nil
			})
		},
	}
}
