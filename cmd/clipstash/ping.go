package main

import (
	"time"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/widget"
)

type pingOutput struct {
	WorkerTime string `json:"worker_time" yaml:"worker_time"`
	RoundTrip  string `json:"round_trip" yaml:"round_trip"`
}

func newPingCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Round-trip a message to the blob worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				started := time.Now()
				ts, err := w.Ping(cmd.Context())
				if err != nil {
					return err
				}
				out := pingOutput{
					WorkerTime: ts.UTC().Format(time.RFC3339Nano),
					RoundTrip:  time.Since(started).String(),
				}
				if *jsonOutput {
					return writeJSON(out)
				}
				return writePlain("pong %s (%s)\n", out.WorkerTime, out.RoundTrip)
			})
		},
	}
}
