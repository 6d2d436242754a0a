package main

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clipstash/internal/config"
	"clipstash/internal/ingest"
	"clipstash/internal/widget"
)

var stdin io.Reader = os.Stdin

// cliPaste is a paste event assembled from command-line input.
type cliPaste struct {
	entries []ingest.TransferEntry
}

func (p *cliPaste) Entries() []ingest.TransferEntry { return p.entries }

func (p *cliPaste) PreventDefault() {}

func newPasteCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		htmlBody string
		files    []string
	)

	cmd := &cobra.Command{
		Use:   "paste [text]",
		Short: "Add text (from the argument or stdin), rich text and files as one paste",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []ingest.TransferEntry
			switch {
			case len(args) == 1:
				entries = append(entries, ingest.TransferEntry{Kind: ingest.EntryString, Type: "text/plain", Data: args[0]})
			case htmlBody == "" && len(files) == 0:
				data, err := io.ReadAll(stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				entries = append(entries, ingest.TransferEntry{Kind: ingest.EntryString, Type: "text/plain", Data: string(data)})
			}
			if htmlBody != "" {
				entries = append(entries, ingest.TransferEntry{Kind: ingest.EntryString, Type: "text/html", Data: htmlBody})
			}
			payloads, err := readFilePayloads(files)
			if err != nil {
				return err
			}
			for i := range payloads {
				entries = append(entries, ingest.TransferEntry{Kind: ingest.EntryFile, File: &payloads[i]})
			}

			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				w.Open()
				defer w.Hide()
				res, _, err := w.HandlePaste(cmd.Context(), &cliPaste{entries: entries})
				if err != nil {
					return err
				}
				return writeIngestResult(newIngestOutput(res, w.Items()), *jsonOutput)
			})
		},
	}

	cmd.Flags().StringVar(&htmlBody, "html", "", "rich text representation")
	cmd.Flags().StringArrayVar(&files, "file", nil, "file to include (repeatable)")
	return cmd
}

func newDropCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <file> [<file>...]",
		Short: "Add files to the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads, err := readFilePayloads(args)
			if err != nil {
				return err
			}
			return withWidget(cmd.Context(), cfg, func(w *widget.Widget) error {
				res, err := w.HandleDrop(cmd.Context(), payloads)
				if err != nil {
					return err
				}
				return writeIngestResult(newIngestOutput(res, w.Items()), *jsonOutput)
			})
		},
	}
}

func readFilePayloads(paths []string) ([]ingest.FilePayload, error) {
	out := make([]ingest.FilePayload, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		out = append(out, ingest.FilePayload{
			Name:         filepath.Base(path),
			MIME:         detectMIME(path, data),
			Data:         data,
			LastModified: info.ModTime().UnixMilli(),
		})
	}
	return out, nil
}

func detectMIME(path string, data []byte) string {
	detected := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if detected == "" {
		detected = http.DetectContentType(data)
	}
	if base, _, ok := strings.Cut(detected, ";"); ok {
		detected = base
	}
	return strings.TrimSpace(detected)
}
