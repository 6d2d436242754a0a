// Package history is the in-memory ordered item list. Every mutation renders
// a snapshot and schedules persistence of the whole list.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"clipstash/internal/models"
)

const (
	DefaultMaxItems = 200

	backgroundTimeout = 30 * time.Second
)

// Saver persists the whole item list.
type Saver interface {
	Save(ctx context.Context, items []models.HistoryItem) error
}

// BlobReleaser deletes owned blobs and drops their session handles.
type BlobReleaser interface {
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// RenderFunc receives a snapshot of the list after each change. It must not
// mutate the store.
type RenderFunc func(items []models.HistoryItem)

// Options configures a Store.
type Options struct {
	MaxItems int
	OnRender RenderFunc
	Logger   *slog.Logger
}

// Store holds the ordered history, newest first.
type Store struct {
	saver    Saver
	blobs    BlobReleaser
	render   RenderFunc
	maxItems int
	logger   *slog.Logger

	mu      sync.Mutex
	items   []models.HistoryItem
	version uint64

	renderMu        sync.Mutex
	renderedVersion uint64

	saveMu       sync.Mutex
	savedVersion uint64

	wg sync.WaitGroup
}

// New constructs an empty Store.
func New(saver Saver, blobs BlobReleaser, opts Options) *Store {
	if opts.MaxItems <= 0 {
		opts.MaxItems = DefaultMaxItems
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		saver:    saver,
		blobs:    blobs,
		render:   opts.OnRender,
		maxItems: opts.MaxItems,
		logger:   logger.With("component", "history"),
		items:    []models.HistoryItem{},
	}
}

// SetRender replaces the render callback.
func (s *Store) SetRender(fn RenderFunc) {
	s.renderMu.Lock()
	s.render = fn
	s.renderMu.Unlock()
}

// Items returns a snapshot of the list.
func (s *Store) Items() []models.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Len returns the number of items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get returns the item with id.
func (s *Store) Get(id string) (models.HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return models.HistoryItem{}, false
}

// Replace installs a loaded list without persisting it.
func (s *Store) Replace(items []models.HistoryItem) {
	s.mu.Lock()
	s.items = append([]models.HistoryItem{}, items...)
	s.version++
	version, snapshot := s.version, s.snapshotLocked()
	s.mu.Unlock()

	s.emitRender(version, snapshot)
}

// InsertAtHead adds item as the newest entry. Items beyond the cap are
// evicted oldest first and their blobs released.
func (s *Store) InsertAtHead(item models.HistoryItem) {
	s.mu.Lock()
	s.items = append([]models.HistoryItem{item}, s.items...)
	var evicted []models.HistoryItem
	if len(s.items) > s.maxItems {
		evicted = append(evicted, s.items[s.maxItems:]...)
		s.items = s.items[:s.maxItems]
	}
	s.mu.Unlock()

	for _, it := range evicted {
		s.logger.Debug("evicting oldest item", "id", it.ID)
	}
	s.commit(blobIDs(evicted)...)
}

// Update applies fn to the item with id. It returns false when the item no
// longer exists, e.g. after a delete raced a blob write.
func (s *Store) Update(id string, fn func(*models.HistoryItem)) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	fn(&s.items[i])
	s.mu.Unlock()

	s.commit()
	return true
}

// RemoveByID deletes one item and releases its blob.
func (s *Store) RemoveByID(id string) (models.HistoryItem, bool) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return models.HistoryItem{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.mu.Unlock()

	s.commit(blobIDs([]models.HistoryItem{removed})...)
	return removed, true
}

// Clear empties the list and removes every blob record.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = []models.HistoryItem{}
	s.mu.Unlock()

	s.commit()
	if s.blobs == nil {
		return
	}
	s.background(func(ctx context.Context) {
		if err := s.blobs.Clear(ctx); err != nil {
			s.logger.Warn("clear blobs failed", "error", err)
		}
	})
}

// Wait blocks until scheduled persistence and blob releases finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) commit(releaseBlobIDs ...string) {
	s.mu.Lock()
	s.version++
	version, snapshot := s.version, s.snapshotLocked()
	s.mu.Unlock()

	s.emitRender(version, snapshot)
	s.schedulePersist(version, snapshot)

	if s.blobs == nil {
		return
	}
	for _, blobID := range releaseBlobIDs {
		s.background(func(ctx context.Context) {
			if err := s.blobs.Delete(ctx, blobID); err != nil {
				s.logger.Warn("release blob failed", "blob_id", blobID, "error", err)
			}
		})
	}
}

func (s *Store) emitRender(version uint64, snapshot []models.HistoryItem) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if s.render == nil || version <= s.renderedVersion {
		return
	}
	s.renderedVersion = version
	s.render(snapshot)
}

func (s *Store) schedulePersist(version uint64, snapshot []models.HistoryItem) {
	if s.saver == nil {
		return
	}
	s.background(func(ctx context.Context) {
		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		if version <= s.savedVersion {
			return
		}
		if err := s.saver.Save(ctx, snapshot); err != nil {
			s.logger.Warn("persist history failed", "version", version, "error", err)
			return
		}
		s.savedVersion = version
	})
}

func (s *Store) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []models.HistoryItem {
	out := make([]models.HistoryItem, len(s.items))
	copy(out, s.items)
	return out
}

func blobIDs(items []models.HistoryItem) []string {
	var ids []string
	for _, it := range items {
		if it.BlobID != "" {
			ids = append(ids, it.BlobID)
		}
	}
	return ids
}
