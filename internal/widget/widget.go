// Package widget is the single entry point that wires the history, ingest,
// metadata and blob tiers together and exposes the user-facing actions.
package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clipstash/internal/blobproto"
	"clipstash/internal/blobstore"
	"clipstash/internal/history"
	"clipstash/internal/ingest"
	"clipstash/internal/store"
	"clipstash/internal/transcode"
)

const (
	MetadataFileName = "clipstash.db"
	BlobDBFileName   = "blobs.db"
	BlobDirName      = "blobs"
)

var (
	// ErrNotOpen is returned for actions that need the widget to be open.
	ErrNotOpen = errors.New("widget is not open")
	// ErrNotFound is returned for unknown item ids.
	ErrNotFound = errors.New("item not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("widget closed")
)

// Options configures a Widget.
type Options struct {
	DataDir         string
	BlobBackend     string
	MaxItems        int
	MaxInlineBytes  int
	DedupWindow     time.Duration
	SignaturePrefix int
	Images          transcode.Options
	Clipboard       ClipboardWriter
	OnRender        history.RenderFunc
	Registerer      prometheus.Registerer
	Logger          *slog.Logger
	Now             func() time.Time
}

// Widget owns every tier for one data directory.
type Widget struct {
	logger *slog.Logger
	now    func() time.Time

	meta     *store.Store
	metadata *store.Metadata
	blobs    blobstore.Store
	worker   *blobproto.Worker
	client   *blobproto.Client
	history  *history.Store
	pipeline *ingest.Pipeline

	clipboard ClipboardWriter
	open      atomic.Bool

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool

	loadReport LoadReport
}

var (
	instanceMu sync.Mutex
	instance   *Widget
)

// Init returns the process-wide widget, building it on first use. Later
// calls return the same instance and ignore opts.
func Init(ctx context.Context, opts Options) (*Widget, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		return instance, nil
	}
	w, err := New(ctx, opts)
	if err != nil {
		return nil, err
	}
	instance = w
	return w, nil
}

// New builds an independent widget: it opens both databases, starts the
// blob worker, runs the legacy migration and loads the stored history.
func New(ctx context.Context, opts Options) (*Widget, error) {
	if opts.DataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	meta, err := store.Open(filepath.Join(opts.DataDir, MetadataFileName))
	if err != nil {
		return nil, err
	}
	blobs, err := blobstore.Open(opts.BlobBackend, blobPath(opts.DataDir, opts.BlobBackend))
	if err != nil {
		_ = meta.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	worker := blobproto.NewWorker(blobs, logger)
	worker.Start()
	client := blobproto.NewClient(worker, logger)
	metadata := store.NewMetadata(meta)

	w := &Widget{
		logger:    logger.With("component", "widget"),
		now:       now,
		meta:      meta,
		metadata:  metadata,
		blobs:     blobs,
		worker:    worker,
		client:    client,
		clipboard: opts.Clipboard,
	}
	w.history = history.New(metadata, client, history.Options{
		MaxItems: opts.MaxItems,
		OnRender: opts.OnRender,
		Logger:   logger,
	})

	metrics, err := ingest.NewMetrics(opts.Registerer)
	if err != nil {
		w.shutdownStores()
		return nil, fmt.Errorf("register ingest metrics: %w", err)
	}
	w.pipeline, err = ingest.New(w.history, client, transcode.New(opts.Images, logger), ingest.Options{
		DedupWindow:     opts.DedupWindow,
		SignaturePrefix: opts.SignaturePrefix,
		MaxInlineBytes:  opts.MaxInlineBytes,
		Now:             now,
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		w.shutdownStores()
		return nil, err
	}

	report, err := w.Load(ctx)
	if err != nil {
		_ = w.Close(context.Background())
		return nil, err
	}
	w.loadReport = report
	return w, nil
}

func blobPath(dataDir, backend string) string {
	if backend == blobstore.BackendDir {
		return filepath.Join(dataDir, BlobDirName)
	}
	return filepath.Join(dataDir, BlobDBFileName)
}

// Open marks the widget open; paste events are consumed only while open.
func (w *Widget) Open() {
	w.open.Store(true)
}

// Hide marks the widget closed.
func (w *Widget) Hide() {
	w.open.Store(false)
}

// IsOpen reports whether the widget is open.
func (w *Widget) IsOpen() bool {
	return w.open.Load()
}

// LoadReport returns what the startup load did.
func (w *Widget) LoadReport() LoadReport {
	return w.loadReport
}

// Metrics returns the ingest counters.
func (w *Widget) Metrics() *ingest.Metrics {
	return w.pipeline.Metrics()
}

// Ping round-trips to the blob worker.
func (w *Widget) Ping(ctx context.Context) (time.Time, error) {
	return w.client.Ping(ctx)
}

// Close drains the ingest queue, waits for blob writes and persistence,
// stops the worker and closes both databases. It is safe to call twice.
func (w *Widget) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		var errs []error
		if w.pipeline != nil {
			if err := w.pipeline.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		w.history.Wait()
		if err := w.shutdownStores(); err != nil {
			errs = append(errs, err)
		}
		w.closeErr = errors.Join(errs...)

		instanceMu.Lock()
		if instance == w {
			instance = nil
		}
		instanceMu.Unlock()
	})
	return w.closeErr
}

func (w *Widget) shutdownStores() error {
	w.worker.Stop()
	var errs []error
	if err := w.blobs.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close blob store: %w", err))
	}
	if err := w.meta.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close metadata store: %w", err))
	}
	return errors.Join(errs...)
}

func (w *Widget) ensureAlive() error {
	if w.closed.Load() {
		return ErrClosed
	}
	return nil
}
