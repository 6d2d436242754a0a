package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"clipstash/internal/format"
	"clipstash/internal/ingest"
	"clipstash/internal/models"
)

const previewRunes = 60

var (
	outputFormatter format.Formatter = format.JSONFormatter{}
	stdout          io.Writer        = os.Stdout
)

func writeJSON(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

type ingestOutput struct {
	Committed int                  `json:"committed" yaml:"committed"`
	Outcome   string               `json:"outcome" yaml:"outcome"`
	Notice    string               `json:"notice,omitempty" yaml:"notice,omitempty"`
	Signature string               `json:"signature,omitempty" yaml:"signature,omitempty"`
	Items     []models.HistoryItem `json:"items" yaml:"items"`
}

func newIngestOutput(res ingest.Result, items []models.HistoryItem) ingestOutput {
	added := items
	if len(added) > res.Committed {
		added = added[:res.Committed]
	}
	return ingestOutput{
		Committed: res.Committed,
		Outcome:   res.Outcome.String(),
		Notice:    res.Notice(),
		Signature: res.Signature,
		Items:     added,
	}
}

func writeIngestResult(out ingestOutput, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(out)
	}
	if out.Notice != "" {
		return writePlain("%s\n", out.Notice)
	}
	if out.Committed == 0 {
		return nil
	}
	if err := writePlain("added %d item(s)\n", out.Committed); err != nil {
		return err
	}
	return writeItemList(out.Items)
}

func writeItemList(items []models.HistoryItem) error {
	for _, it := range items {
		if err := writePlain("%s\n", formatItemLine(it)); err != nil {
			return err
		}
	}
	return nil
}

func writeItemDetail(it models.HistoryItem) error {
	lines := []string{
		fmt.Sprintf("id: %s", it.ID),
		fmt.Sprintf("kind: %s", it.Kind),
		fmt.Sprintf("created_at: %s", formatTime(it.CreatedAt)),
	}
	if it.Kind == models.KindText {
		lines = append(lines, fmt.Sprintf("text: %s", it.Text))
		if it.HTML != "" {
			lines = append(lines, fmt.Sprintf("html: %s", it.HTML))
		}
	} else {
		lines = append(lines,
			fmt.Sprintf("name: %s", it.Name),
			fmt.Sprintf("mime: %s", it.MIME),
			fmt.Sprintf("size: %d", it.Size),
		)
		if it.BlobID != "" {
			lines = append(lines, fmt.Sprintf("blob_id: %s", it.BlobID))
		}
		if it.DataURL != "" {
			lines = append(lines, "inline: true")
		}
	}
	if state := itemState(it); state != "" {
		lines = append(lines, fmt.Sprintf("state: %s", state))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatItemLine(it models.HistoryItem) string {
	var summary string
	switch it.Kind {
	case models.KindText:
		summary = preview(it.Text)
		if summary == "" {
			summary = "(rich text)"
		}
	default:
		summary = fmt.Sprintf("%s (%s, %d bytes)", it.Name, it.MIME, it.Size)
	}
	line := fmt.Sprintf("%s [%s] %s - %s", it.ID, it.Kind, formatTime(it.CreatedAt), summary)
	if state := itemState(it); state != "" {
		line += " [" + state + "]"
	}
	return line
}

func itemState(it models.HistoryItem) string {
	var states []string
	if it.Pending {
		states = append(states, "pending")
	}
	if it.Error {
		states = append(states, "error")
	}
	if it.Missing {
		states = append(states, "missing")
	}
	return strings.Join(states, ",")
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
