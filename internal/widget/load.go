package widget

import (
	"context"
	"fmt"

	"clipstash/internal/legacy"
	"clipstash/internal/models"
)

// LoadReport summarizes a load.
type LoadReport struct {
	Legacy  legacy.Report `json:"legacy" yaml:"legacy"`
	Loaded  int           `json:"loaded" yaml:"loaded"`
	Missing int           `json:"missing" yaml:"missing"`
}

// Load runs the legacy migration, reads the stored list and flags items
// whose blob is gone. The loaded list replaces the in-memory one without
// being written back.
func (w *Widget) Load(ctx context.Context) (LoadReport, error) {
	if err := w.ensureAlive(); err != nil {
		return LoadReport{}, err
	}
	var report LoadReport

	migrated, err := legacy.Migrate(ctx, w.meta, w.metadata, w.logger)
	if err != nil {
		// Best effort: the current list still loads.
		w.logger.Warn("legacy migration failed", "error", err)
	}
	report.Legacy = migrated

	items, err := w.metadata.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load history: %w", err)
	}
	for i := range items {
		missing, err := w.blobMissing(ctx, items[i])
		if err != nil {
			return report, err
		}
		if missing {
			items[i].Missing = true
			report.Missing++
		}
	}
	w.history.Replace(items)
	report.Loaded = len(items)

	w.logger.Debug("history loaded", "items", report.Loaded, "missing", report.Missing, "legacy_migrated", migrated.Migrated)
	return report, nil
}

func (w *Widget) blobMissing(ctx context.Context, it models.HistoryItem) (bool, error) {
	if it.BlobID == "" || it.DataURL != "" {
		return false, nil
	}
	found, err := w.client.Has(ctx, it.BlobID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		w.logger.Warn("blob check failed", "id", it.ID, "blob_id", it.BlobID, "error", err)
		return false, nil
	}
	return !found, nil
}
