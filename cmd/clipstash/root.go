package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/format"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		jsonOutput bool
		outputName string
		logLevel   string
		dataDir    string
	)

	cmd := &cobra.Command{
		Use:           "clipstash",
		Short:         "Clipstash keeps a persistent, de-duplicated clipboard history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if outputName != "" {
				formatter, err := format.ForName(outputName)
				if err != nil {
					return err
				}
				outputFormatter = formatter
				jsonOutput = true
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if err := cfg.ApplyStoreFile(); err != nil {
				return err
			}
			warning, err := configureLogger(logLevel, cfg)
			if err != nil {
				return err
			}
			if warning != "" {
				fmt.Fprintln(logOutput, warning)
			}
			return nil
		},
	}

	cmd.Version = version
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVarP(&outputName, "output", "o", "", "structured output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides config)")

	cmd.AddCommand(
		newPasteCmd(cfg, &jsonOutput),
		newDropCmd(cfg, &jsonOutput),
		newListCmd(cfg, &jsonOutput),
		newShowCmd(cfg, &jsonOutput),
		newExportCmd(cfg),
		newRmCmd(cfg, &jsonOutput),
		newClearCmd(cfg),
		newCopyCmd(cfg),
		newPingCmd(cfg, &jsonOutput),
		newStatsCmd(cfg, &jsonOutput),
		newImportLegacyCmd(cfg, &jsonOutput),
		newConfigCmd(cfg, &jsonOutput),
	)

	return cmd
}
