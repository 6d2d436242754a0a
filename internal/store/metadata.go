package store

import (
	"context"
	"encoding/json"
	"fmt"

	"clipstash/internal/models"
)

const (
	// HistoryKey holds the current item list.
	HistoryKey = "clipstash.history.v2"
	// LegacyHistoryKey holds the previous on-disk format.
	LegacyHistoryKey = "clipstash.history"
	// LegacyMigratedKey marks that the legacy record was imported.
	LegacyMigratedKey = "clipstash.history.migrated"
)

// KV is the metadata key-value interface.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Metadata persists the serializable projection of the history list as one
// record. Every Save rewrites the whole list; this is sized for tens to low
// hundreds of items.
type Metadata struct {
	kv  KV
	key string
}

// NewMetadata returns a metadata store over kv using HistoryKey.
func NewMetadata(kv KV) *Metadata {
	return &Metadata{kv: kv, key: HistoryKey}
}

// Save overwrites the stored list with items, dropping transient state and
// entries that cannot be persisted.
func (m *Metadata) Save(ctx context.Context, items []models.HistoryItem) error {
	out := make([]models.HistoryItem, 0, len(items))
	for _, it := range items {
		if !it.Persistable() {
			continue
		}
		out = append(out, it.Stripped())
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return m.kv.Set(ctx, m.key, string(raw))
}

// Load returns the stored list, or an empty list when none is stored.
func (m *Metadata) Load(ctx context.Context) ([]models.HistoryItem, error) {
	raw, ok, err := m.kv.Get(ctx, m.key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []models.HistoryItem{}, nil
	}
	var decoded []models.HistoryItem
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	items := make([]models.HistoryItem, 0, len(decoded))
	for _, it := range decoded {
		if it.ID == "" || !it.Persistable() {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
