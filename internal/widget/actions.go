package widget

import (
	"context"
	"errors"
	"fmt"
	"io"

	"clipstash/internal/blobproto"
	"clipstash/internal/ingest"
	"clipstash/internal/legacy"
	"clipstash/internal/models"
)

// PasteEvent is one platform paste.
type PasteEvent interface {
	Entries() []ingest.TransferEntry
	PreventDefault()
}

// ClipboardReader performs an explicit clipboard read.
type ClipboardReader interface {
	Read(ctx context.Context) ([]ingest.ClipboardBundle, error)
}

// HandlePaste ingests ev when the widget is open. It reports false, and
// leaves the event alone, when the widget is not open.
func (w *Widget) HandlePaste(ctx context.Context, ev PasteEvent) (ingest.Result, bool, error) {
	if err := w.ensureAlive(); err != nil {
		return ingest.Result{}, false, err
	}
	if !w.IsOpen() || ev == nil {
		return ingest.Result{}, false, nil
	}
	ev.PreventDefault()
	entries := ev.Entries()
	res, err := w.pipeline.Submit(ctx, ingest.SourcePaste, func(context.Context) ([]models.Candidate, error) {
		return ingest.NormalizeDataTransfer(entries), nil
	})
	return res, true, err
}

// HandleDrop ingests dropped files.
func (w *Widget) HandleDrop(ctx context.Context, files []ingest.FilePayload) (ingest.Result, error) {
	if err := w.ensureAlive(); err != nil {
		return ingest.Result{}, err
	}
	return w.pipeline.Submit(ctx, ingest.SourceDrop, func(context.Context) ([]models.Candidate, error) {
		return ingest.NormalizeFiles(files), nil
	})
}

// ReadClipboard performs an explicit clipboard read on the ingest queue.
func (w *Widget) ReadClipboard(ctx context.Context, reader ClipboardReader) (ingest.Result, error) {
	if err := w.ensureAlive(); err != nil {
		return ingest.Result{}, err
	}
	if reader == nil {
		return ingest.Result{}, fmt.Errorf("clipboard reader is required")
	}
	return w.pipeline.Submit(ctx, ingest.SourceClipboardRead, func(ctx context.Context) ([]models.Candidate, error) {
		bundles, err := reader.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("read clipboard: %w", err)
		}
		return w.pipeline.NormalizeClipboardRead(ctx, bundles)
	})
}

// ImportLegacy ingests a legacy export read from r. Inline payloads are
// moved into the blob store. It returns how many entries were dropped.
func (w *Widget) ImportLegacy(ctx context.Context, r io.Reader) (ingest.Result, int, error) {
	if err := w.ensureAlive(); err != nil {
		return ingest.Result{}, 0, err
	}
	items, err := legacy.Parse(r)
	if err != nil {
		return ingest.Result{}, 0, err
	}
	candidates, dropped := legacy.Candidates(items)
	res, err := w.pipeline.Ingest(ctx, candidates, ingest.SourceImport)
	return res, dropped, err
}

// Items returns the history, newest first.
func (w *Widget) Items() []models.HistoryItem {
	return w.history.Items()
}

// Item returns one item by id.
func (w *Widget) Item(id string) (models.HistoryItem, error) {
	it, ok := w.history.Get(id)
	if !ok {
		return models.HistoryItem{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return it, nil
}

// Delete removes one item and its blob.
func (w *Widget) Delete(id string) error {
	if err := w.ensureAlive(); err != nil {
		return err
	}
	if _, ok := w.history.RemoveByID(id); !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Clear removes every item and blob.
func (w *Widget) Clear() error {
	if err := w.ensureAlive(); err != nil {
		return err
	}
	w.history.Clear()
	return nil
}

// ToggleExpanded flips the session-only expanded flag and returns the new
// state.
func (w *Widget) ToggleExpanded(id string) (bool, error) {
	var expanded bool
	if !w.history.Update(id, func(it *models.HistoryItem) {
		it.Expanded = !it.Expanded
		expanded = it.Expanded
	}) {
		return false, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return expanded, nil
}

// Resolve returns a session handle for a binary item. Items kept only as
// inline data resolve from that data. A blob found absent marks the item
// missing and returns blobproto.ErrNotFound.
func (w *Widget) Resolve(ctx context.Context, id string) (*blobproto.Handle, error) {
	it, err := w.Item(id)
	if err != nil {
		return nil, err
	}
	if it.Kind == models.KindText {
		return nil, fmt.Errorf("%s: text items have no payload", id)
	}
	if it.BlobID != "" && !it.Error && !it.Missing {
		h, err := w.client.Resolve(ctx, it.BlobID)
		if err == nil {
			return h, nil
		}
		if !errors.Is(err, blobproto.ErrNotFound) {
			return nil, err
		}
		w.history.Update(id, func(item *models.HistoryItem) { item.Missing = true })
		if it.DataURL == "" {
			return nil, err
		}
	}
	if h, ok := inlineHandle(it); ok {
		return h, nil
	}
	if it.Pending {
		return nil, fmt.Errorf("%s: blob write still pending", id)
	}
	return nil, fmt.Errorf("%s: %w", id, blobproto.ErrNotFound)
}

func inlineHandle(it models.HistoryItem) (*blobproto.Handle, bool) {
	mimeType, data, ok := legacy.DecodeDataURL(it.DataURL)
	if !ok {
		return nil, false
	}
	if it.MIME != "" {
		mimeType = it.MIME
	}
	return &blobproto.Handle{
		BlobID: it.BlobID,
		URL:    it.DataURL,
		MIME:   mimeType,
		Name:   it.Name,
		Size:   int64(len(data)),
		Data:   data,
	}, true
}

// Stats counts the current history.
type Stats struct {
	Items   int                     `json:"items" yaml:"items"`
	ByKind  map[models.ItemKind]int `json:"by_kind" yaml:"by_kind"`
	Pending int                     `json:"pending" yaml:"pending"`
	Errored int                     `json:"errored" yaml:"errored"`
	Missing int                     `json:"missing" yaml:"missing"`
	Inline  int                     `json:"inline" yaml:"inline"`
	Bytes   int64                   `json:"bytes" yaml:"bytes"`
	Handles int                     `json:"handles" yaml:"handles"`
	Ingest  ingest.Snapshot         `json:"ingest" yaml:"ingest"`
}

// Stats summarizes the history and the ingest counters.
func (w *Widget) Stats() (Stats, error) {
	items := w.history.Items()
	st := Stats{Items: len(items), ByKind: map[models.ItemKind]int{}, Handles: w.client.Handles()}
	for _, it := range items {
		st.ByKind[it.Kind]++
		st.Bytes += it.Size
		if it.Pending {
			st.Pending++
		}
		if it.Error {
			st.Errored++
		}
		if it.Missing {
			st.Missing++
		}
		if it.DataURL != "" {
			st.Inline++
		}
	}
	snap, err := w.pipeline.Metrics().Snapshot()
	if err != nil {
		return st, err
	}
	st.Ingest = snap
	return st, nil
}
