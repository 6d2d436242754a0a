package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
)

type configEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

type configSetOutput struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
	Path  string `json:"path" yaml:"path"`
	Scope string `json:"scope" yaml:"scope"`
}

func newConfigCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration (global or per store)",
	}

	cmd.AddCommand(
		newConfigGetCmd(cfg),
		newConfigListCmd(cfg, jsonOutput),
		newConfigSetCmd(cfg, jsonOutput),
	)
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the effective value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := effectiveValue(cfg, args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := make([]configEntry, 0, len(config.AllowedKeys()))
			for _, key := range config.AllowedKeys() {
				value, err := cfg.Get(key)
				if err != nil {
					return err
				}
				entries = append(entries, configEntry{Key: key, Value: value})
			}
			if *jsonOutput {
				return writeJSON(entries)
			}
			for _, e := range entries {
				if err := writePlain("%s = %s\n", e.Key, e.Value); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigSetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var storeScope bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in ~/.clipstash.toml, or in the store's config.toml with --store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := setConfigValue(cfg, storeScope, args[0], args[1])
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(out)
			}
			return writePlain("%s = %v (%s: %s)\n", out.Key, out.Value, out.Scope, out.Path)
		},
	}

	cmd.Flags().BoolVar(&storeScope, "store", false, "write to the config of the current data dir only")
	return cmd
}

func effectiveValue(cfg *config.Config, key string) (string, error) {
	if !config.IsAllowedKey(key) {
		return "", fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
	}
	return cfg.Get(key)
}

func setConfigValue(cfg *config.Config, storeScope bool, key, value string) (configSetOutput, error) {
	if storeScope {
		written, err := config.SetStoreKey(cfg.DataDir, key, value)
		if err != nil {
			return configSetOutput{}, err
		}
		return configSetOutput{Key: key, Value: written, Path: config.StorePath(cfg.DataDir), Scope: "store"}, nil
	}

	path, err := config.GlobalPath()
	if err != nil {
		return configSetOutput{}, err
	}
	written, err := config.SetKey(path, key, value)
	if err != nil {
		return configSetOutput{}, err
	}
	return configSetOutput{Key: key, Value: written, Path: path, Scope: "global"}, nil
}
