package main

import (
	"context"
	"errors"
	"strings"

	"clipstash/internal/blobproto"
	"clipstash/internal/widget"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch {
	case errors.Is(err, widget.ErrNotFound):
		lines = append(lines, "hint: list item ids with: clipstash list")
	case errors.Is(err, blobproto.ErrNotFound):
		lines = append(lines,
			"hint: the item's payload is gone from the blob store; remove it with: clipstash rm <id>",
		)
	case errors.Is(err, widget.ErrNothingToCopy):
		lines = append(lines, "hint: history is empty; add something with: clipstash paste")
	case errors.Is(err, widget.ErrClipboardUnavailable):
		lines = append(lines, "hint: retry with --plain to copy text only.")
	case errors.Is(err, context.DeadlineExceeded):
		lines = append(lines, "hint: operation timed out; pending blob writes may not have finished.")
	}

	if isBusy(err) {
		lines = append(lines,
			"hint: another clipstash process holds the store; retry when it exits.",
			"hint: or point this run at another store with --data-dir or CLIPSTASH_DATA_DIR.",
		)
	}

	return uniqueLines(lines)
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
