// Package legacy imports history kept in the previous format, where binary
// items were embedded inline and there was no blob store.
package legacy

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"clipstash/internal/models"
	"clipstash/internal/store"
)

// Item is one entry of the legacy record.
type Item struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Type    string `json:"type" yaml:"type"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	HTML    string `json:"html,omitempty" yaml:"html,omitempty"`
	DataURL string `json:"dataUrl,omitempty" yaml:"dataUrl,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	MIME    string `json:"mime,omitempty" yaml:"mime,omitempty"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
	TS      int64  `json:"ts,omitempty" yaml:"ts,omitempty"`
}

// Report summarizes a migration run.
type Report struct {
	Ran      bool `json:"ran" yaml:"ran"`
	Migrated int  `json:"migrated" yaml:"migrated"`
	Dropped  int  `json:"dropped" yaml:"dropped"`
}

// Migrate imports the legacy record once. It runs only when the current
// list is empty, the legacy record holds items, and the migrated marker is
// absent. The marker is written after the migrated list is saved.
func Migrate(ctx context.Context, kv store.KV, meta *store.Metadata, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "legacy")

	if _, done, err := kv.Get(ctx, store.LegacyMigratedKey); err != nil {
		return Report{}, fmt.Errorf("read migration marker: %w", err)
	} else if done {
		return Report{}, nil
	}

	current, err := meta.Load(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(current) > 0 {
		return Report{}, nil
	}

	raw, ok, err := kv.Get(ctx, store.LegacyHistoryKey)
	if err != nil {
		return Report{}, fmt.Errorf("read legacy history: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return Report{}, nil
	}
	legacyItems, err := Parse(strings.NewReader(raw))
	if err != nil {
		return Report{}, err
	}
	if len(legacyItems) == 0 {
		return Report{}, nil
	}

	items, dropped, err := Convert(legacyItems)
	if err != nil {
		return Report{}, err
	}
	if err := meta.Save(ctx, items); err != nil {
		return Report{}, fmt.Errorf("save migrated history: %w", err)
	}
	if err := kv.Set(ctx, store.LegacyMigratedKey, "1"); err != nil {
		return Report{}, fmt.Errorf("write migration marker: %w", err)
	}

	logger.Info("legacy history migrated", "migrated", len(items), "dropped", dropped)
	return Report{Ran: true, Migrated: len(items), Dropped: dropped}, nil
}

// Parse decodes a legacy list. The stored record is JSON and is decoded as
// such; input that is not valid JSON is read as a YAML export.
func Parse(r io.Reader) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read legacy history: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var items []Item
	if json.Valid(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode legacy history: %w", err)
		}
		return items, nil
	}
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode legacy history: %w", err)
	}
	return items, nil
}

// Convert maps legacy items to history items in the same order. Items
// without a recoverable payload are dropped and counted.
func Convert(legacyItems []Item) ([]models.HistoryItem, int, error) {
	out := make([]models.HistoryItem, 0, len(legacyItems))
	dropped := 0
	for _, li := range legacyItems {
		it, ok := convertOne(li)
		if !ok {
			dropped++
			continue
		}
		if it.ID == "" {
			id, err := store.NewItemID()
			if err != nil {
				return nil, 0, err
			}
			it.ID = id
		}
		out = append(out, it)
	}
	return out, dropped, nil
}

func convertOne(li Item) (models.HistoryItem, bool) {
	it := models.HistoryItem{ID: li.ID, CreatedAt: li.TS}
	switch strings.ToLower(strings.TrimSpace(li.Type)) {
	case "text", "":
		it.Kind = models.KindText
		it.Text = li.Text
		it.HTML = li.HTML
		return it, it.HasContent()
	case "image", "file":
		mimeType, data, ok := DecodeDataURL(li.DataURL)
		if !ok {
			return models.HistoryItem{}, false
		}
		if li.MIME != "" {
			mimeType = li.MIME
		}
		it.Kind = models.KindFile
		if models.IsImageMIME(mimeType) || strings.EqualFold(li.Type, "image") {
			it.Kind = models.KindImage
		}
		it.DataURL = li.DataURL
		it.Name = li.Name
		it.MIME = mimeType
		it.Size = int64(len(data))
		return it, true
	default:
		return models.HistoryItem{}, false
	}
}

// DecodeDataURL splits a base64 data URL into its media type and bytes.
func DecodeDataURL(dataURL string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, false
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return mimeType, data, true
}

// Candidates turns legacy items into ingest candidates, oldest first, so
// that the newest legacy item ends up at the head of history.
func Candidates(legacyItems []Item) ([]models.Candidate, int) {
	out := make([]models.Candidate, 0, len(legacyItems))
	dropped := 0
	for i := len(legacyItems) - 1; i >= 0; i-- {
		it, ok := convertOne(legacyItems[i])
		if !ok {
			dropped++
			continue
		}
		switch it.Kind {
		case models.KindText:
			out = append(out, models.TextCandidate{Plain: it.Text, HTML: it.HTML})
		default:
			_, data, _ := DecodeDataURL(it.DataURL)
			out = append(out, models.FileCandidate{
				Data:         data,
				Name:         it.Name,
				MIME:         it.MIME,
				LastModified: it.CreatedAt,
				KindHint:     it.Kind,
			})
		}
	}
	return out, dropped
}
