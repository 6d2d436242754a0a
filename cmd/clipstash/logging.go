package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"clipstash/internal/config"
)

const (
	logLevelEnvKey = "CLIPSTASH_LOG_LEVEL"

	// levelQuiet sits above every level components log at, so piped output
	// stays clean.
	levelQuiet = slog.LevelError + 4
)

var logOutput io.Writer = os.Stderr

// logChoice is the level requested for one run and where it came from.
type logChoice struct {
	raw    string
	source string
}

func chooseLogLevel(flagLevel, envLevel, configLevel string) logChoice {
	switch {
	case strings.TrimSpace(flagLevel) != "":
		return logChoice{raw: flagLevel, source: "flag"}
	case strings.TrimSpace(envLevel) != "":
		return logChoice{raw: envLevel, source: "env"}
	case strings.TrimSpace(configLevel) != "":
		return logChoice{raw: configLevel, source: "config"}
	}
	return logChoice{source: "default"}
}

func (c logChoice) setting() string {
	switch c.source {
	case "flag":
		return "--log-level"
	case "env":
		return logLevelEnvKey
	default:
		return "log_level"
	}
}

// configureLogger installs the default logger for one run. Records carry the
// store the run acts on. An invalid flag is an error; an invalid env or config
// level falls back to the default and returns a warning line.
func configureLogger(flagLevel string, cfg *config.Config) (string, error) {
	choice := chooseLogLevel(flagLevel, os.Getenv(logLevelEnvKey), cfg.LogLevel)

	var warning string
	level, err := parseLogLevel(choice.raw)
	if err != nil {
		if choice.source == "flag" {
			return "", fmt.Errorf("invalid --log-level %q", flagLevel)
		}
		level, _ = parseLogLevel(config.DefaultLogLevel)
		warning = fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", choice.setting(), choice.raw, config.DefaultLogLevel)
	}

	logger := newStoreLogger(logOutput, level, cfg)
	slog.SetDefault(logger)
	logger.Debug("logger configured", "level", level.String(), "level_source", choice.source)
	return warning, nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "":
		return slog.LevelInfo, nil
	case "quiet", "off":
		return levelQuiet, nil
	case "warning":
		value = "warn"
	}

	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newStoreLogger(w io.Writer, level slog.Level, cfg *config.Config) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("data_dir", cfg.DataDir, "blob_backend", cfg.Blobs.Backend)
}
