package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clipstash/internal/config"
	"clipstash/internal/transcode"
	"clipstash/internal/widget"
)

const closeTimeout = 30 * time.Second

var errRichUnsupported = errors.New("rich output disabled")

func widgetOptions(cfg *config.Config) widget.Options {
	return widget.Options{
		DataDir:         cfg.DataDir,
		BlobBackend:     cfg.Blobs.Backend,
		MaxItems:        cfg.History.MaxItems,
		MaxInlineBytes:  cfg.History.MaxInlineBytes,
		DedupWindow:     time.Duration(cfg.Ingest.DedupWindowMS) * time.Millisecond,
		SignaturePrefix: cfg.Ingest.SignaturePrefix,
		Images: transcode.Options{
			SoftLimitBytes: cfg.Images.SoftLimitBytes,
			MaxDimension:   cfg.Images.MaxDimension,
			MinScale:       cfg.Images.MinScale,
			Quality:        cfg.Images.Quality,
		},
		Registerer: prometheus.DefaultRegisterer,
		Logger:     slog.Default(),
	}
}

// withWidget opens the widget for one command and closes it afterwards,
// which drains pending ingest work and persistence.
func withWidget(ctx context.Context, cfg *config.Config, fn func(w *widget.Widget) error) error {
	return withWidgetOptions(ctx, widgetOptions(cfg), fn)
}

func withWidgetOptions(ctx context.Context, opts widget.Options, fn func(w *widget.Widget) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	w, err := widget.Init(ctx, opts)
	if err != nil {
		return err
	}
	runErr := fn(w)

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := w.Close(closeCtx); err != nil {
		if runErr != nil {
			return errors.Join(runErr, err)
		}
		return fmt.Errorf("close: %w", err)
	}
	return runErr
}

// terminalClipboard stands in for the platform clipboard: rich content is
// written as HTML, plain content as text.
type terminalClipboard struct {
	out       io.Writer
	plainOnly bool
}

func (c terminalClipboard) WriteRich(_ context.Context, htmlBody, _ string) error {
	if c.plainOnly {
		return errRichUnsupported
	}
	_, err := fmt.Fprintln(c.out, htmlBody)
	return err
}

func (c terminalClipboard) WritePlain(_ context.Context, plain string) error {
	_, err := fmt.Fprintln(c.out, plain)
	return err
}
