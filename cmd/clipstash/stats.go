package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/widget"
)

const metricPrefix = "clipstash_"

func newStatsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var exposition bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show history statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				if exposition {
					return writeExposition(prometheus.DefaultGatherer)
				}
				st, err := w.Stats()
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(st)
				}
				return writeStats(st)
			})
		},
	}

	cmd.Flags().BoolVar(&exposition, "prometheus", false, "write ingest metrics in the Prometheus text format")
	return cmd
}

func writeStats(st widget.Stats) error {
	kinds := make([]string, 0, len(st.ByKind))
	for kind, n := range st.ByKind {
		kinds = append(kinds, fmt.Sprintf("%s=%d", kind, n))
	}
	sort.Strings(kinds)

	lines := []string{
		fmt.Sprintf("items: %d", st.Items),
		fmt.Sprintf("by_kind: %s", strings.Join(kinds, " ")),
		fmt.Sprintf("bytes: %d", st.Bytes),
		fmt.Sprintf("inline: %d", st.Inline),
		fmt.Sprintf("missing: %d", st.Missing),
		fmt.Sprintf("errored: %d", st.Errored),
		fmt.Sprintf("pending: %d", st.Pending),
		fmt.Sprintf("handles: %d", st.Handles),
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeExposition(gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), metricPrefix) {
			continue
		}
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return nil
}
