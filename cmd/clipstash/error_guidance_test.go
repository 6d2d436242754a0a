package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"clipstash/internal/blobproto"
	"clipstash/internal/widget"
)

func TestFormatCLIError_NotFoundGuidance(t *testing.T) {
	err := fmt.Errorf("%w: abc", widget.ErrNotFound)
	lines := formatCLIError(err)
	if lines[0] != err.Error() {
		t.Fatalf("expected error message first, got %v", lines)
	}
	if !containsLine(lines, "hint: list item ids with: clipstash list") {
		t.Fatalf("expected list guidance, got %v", lines)
	}
}

func TestFormatCLIError_MissingPayloadGuidance(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("resolve: %w", blobproto.ErrNotFound))
	if !containsLine(lines, "hint: the item's payload is gone from the blob store; remove it with: clipstash rm <id>") {
		t.Fatalf("expected missing payload guidance, got %v", lines)
	}
}

func TestFormatCLIError_CopyGuidance(t *testing.T) {
	lines := formatCLIError(widget.ErrNothingToCopy)
	if !containsLine(lines, "hint: history is empty; add something with: clipstash paste") {
		t.Fatalf("expected empty history guidance, got %v", lines)
	}

	lines = formatCLIError(errors.Join(widget.ErrClipboardUnavailable, errors.New("denied")))
	if !containsLine(lines, "hint: retry with --plain to copy text only.") {
		t.Fatalf("expected plain copy guidance, got %v", lines)
	}
}

func TestFormatCLIError_BusyGuidance(t *testing.T) {
	lines := formatCLIError(errors.New("open store: database is locked (5) (SQLITE_BUSY)"))
	if !containsLine(lines, "hint: another clipstash process holds the store; retry when it exits.") {
		t.Fatalf("expected busy guidance, got %v", lines)
	}
}

func TestFormatCLIError_TimeoutGuidance(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("close: %w", context.DeadlineExceeded))
	if !containsLine(lines, "hint: operation timed out; pending blob writes may not have finished.") {
		t.Fatalf("expected timeout guidance, got %v", lines)
	}
}

func TestFormatCLIError_Plain(t *testing.T) {
	if lines := formatCLIError(nil); lines != nil {
		t.Fatalf("expected nil for nil error, got %v", lines)
	}
	lines := formatCLIError(errors.New("boom"))
	if len(lines) != 1 || lines[0] != "boom" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestUniqueLines(t *testing.T) {
	got := uniqueLines([]string{"a", "", "b", "a"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected lines: %v", got)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
