package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"clipstash/internal/models"
)

type memSaver struct {
	mu    sync.Mutex
	saves int
	last  []models.HistoryItem
	err   error
}

func (m *memSaver) Save(_ context.Context, items []models.HistoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.last = items
	return nil
}

func (m *memSaver) snapshot() []models.HistoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

type memBlobs struct {
	mu      sync.Mutex
	deleted []string
	cleared int
}

func (m *memBlobs) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memBlobs) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	return nil
}

func ids(items []models.HistoryItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestInsertAtHeadOrdersNewestFirst(t *testing.T) {
	saver := &memSaver{}
	var rendered [][]models.HistoryItem
	st := New(saver, &memBlobs{}, Options{OnRender: func(items []models.HistoryItem) {
		rendered = append(rendered, items)
	}})

	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindText, Text: "a"})
	st.InsertAtHead(models.HistoryItem{ID: "b", Kind: models.KindText, Text: "b"})
	st.Wait()

	if got := ids(st.Items()); !equalStrings(got, []string{"b", "a"}) {
		t.Fatalf("expected [b a], got %v", got)
	}
	if len(rendered) != 2 {
		t.Fatalf("expected one render per mutation, got %d", len(rendered))
	}
	if got := ids(saver.snapshot()); !equalStrings(got, []string{"b", "a"}) {
		t.Fatalf("expected persisted [b a], got %v", got)
	}
}

func TestUpdate(t *testing.T) {
	saver := &memSaver{}
	st := New(saver, nil, Options{})
	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindImage, BlobID: "bl-a", Pending: true})

	ok := st.Update("a", func(it *models.HistoryItem) { it.Pending = false })
	if !ok {
		t.Fatal("expected update to find item")
	}
	st.Wait()

	got, _ := st.Get("a")
	if got.Pending {
		t.Fatal("expected pending cleared")
	}
	if persisted := saver.snapshot(); len(persisted) != 1 || persisted[0].Pending {
		t.Fatalf("expected latest snapshot persisted, got %#v", persisted)
	}

	if st.Update("missing", func(*models.HistoryItem) {}) {
		t.Fatal("expected update of missing item to report false")
	}
}

func TestRemoveByIDReleasesBlob(t *testing.T) {
	blobs := &memBlobs{}
	saver := &memSaver{}
	st := New(saver, blobs, Options{})
	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindImage, BlobID: "bl-a"})
	st.InsertAtHead(models.HistoryItem{ID: "b", Kind: models.KindText, Text: "b"})

	removed, ok := st.RemoveByID("a")
	if !ok || removed.ID != "a" {
		t.Fatalf("expected removal of a, got %#v ok=%v", removed, ok)
	}
	st.Wait()

	if got := ids(st.Items()); !equalStrings(got, []string{"b"}) {
		t.Fatalf("expected [b], got %v", got)
	}
	if !equalStrings(blobs.deleted, []string{"bl-a"}) {
		t.Fatalf("expected blob bl-a released, got %v", blobs.deleted)
	}
	if got := ids(saver.snapshot()); !equalStrings(got, []string{"b"}) {
		t.Fatalf("expected persisted [b], got %v", got)
	}

	if _, ok := st.RemoveByID("a"); ok {
		t.Fatal("expected second removal to report false")
	}
}

func TestRemoveKeepsBackingArrayIntact(t *testing.T) {
	st := New(nil, nil, Options{})
	for _, id := range []string{"c", "b", "a"} {
		st.InsertAtHead(models.HistoryItem{ID: id, Kind: models.KindText, Text: id})
	}
	before := st.Items()
	st.RemoveByID("b")
	if got := ids(before); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected earlier snapshot untouched, got %v", got)
	}
	if got := ids(st.Items()); !equalStrings(got, []string{"a", "c"}) {
		t.Fatalf("expected [a c], got %v", got)
	}
}

func TestClear(t *testing.T) {
	blobs := &memBlobs{}
	saver := &memSaver{}
	st := New(saver, blobs, Options{})
	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindImage, BlobID: "bl-a"})

	st.Clear()
	st.Wait()

	if st.Len() != 0 {
		t.Fatalf("expected empty list, got %d", st.Len())
	}
	if blobs.cleared != 1 {
		t.Fatalf("expected blob store cleared once, got %d", blobs.cleared)
	}
	if persisted := saver.snapshot(); len(persisted) != 0 {
		t.Fatalf("expected empty list persisted, got %#v", persisted)
	}
}

func TestMaxItemsEvictsOldest(t *testing.T) {
	blobs := &memBlobs{}
	st := New(nil, blobs, Options{MaxItems: 2})
	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindImage, BlobID: "bl-a"})
	st.InsertAtHead(models.HistoryItem{ID: "b", Kind: models.KindImage, BlobID: "bl-b"})
	st.InsertAtHead(models.HistoryItem{ID: "c", Kind: models.KindText, Text: "c"})
	st.Wait()

	if got := ids(st.Items()); !equalStrings(got, []string{"c", "b"}) {
		t.Fatalf("expected [c b], got %v", got)
	}
	if !equalStrings(blobs.deleted, []string{"bl-a"}) {
		t.Fatalf("expected evicted blob released, got %v", blobs.deleted)
	}
}

func TestReplaceRendersWithoutPersisting(t *testing.T) {
	saver := &memSaver{}
	renders := 0
	st := New(saver, nil, Options{OnRender: func([]models.HistoryItem) { renders++ }})
	st.Replace([]models.HistoryItem{{ID: "x", Kind: models.KindText, Text: "x"}})
	st.Wait()

	if renders != 1 {
		t.Fatalf("expected one render, got %d", renders)
	}
	if saver.saves != 0 {
		t.Fatalf("expected no persistence on replace, got %d saves", saver.saves)
	}
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	saver := &memSaver{err: errors.New("quota exceeded")}
	st := New(saver, nil, Options{})
	st.InsertAtHead(models.HistoryItem{ID: "a", Kind: models.KindText, Text: "a"})
	st.Wait()

	if st.Len() != 1 {
		t.Fatalf("expected in-memory item kept, got %d", st.Len())
	}
}

func TestConcurrentUpdatesPersistLatest(t *testing.T) {
	saver := &memSaver{}
	st := New(saver, nil, Options{})
	for i := 0; i < 20; i++ {
		st.InsertAtHead(models.HistoryItem{ID: string(rune('a' + i)), Kind: models.KindImage, BlobID: "bl", Pending: true})
	}

	var wg sync.WaitGroup
	for _, it := range st.Items() {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			st.Update(id, func(item *models.HistoryItem) { item.Pending = false })
		}(it.ID)
	}
	wg.Wait()
	st.Wait()

	persisted := saver.snapshot()
	if len(persisted) != 20 {
		t.Fatalf("expected 20 persisted items, got %d", len(persisted))
	}
	for _, it := range persisted {
		if it.Pending {
			t.Fatalf("expected final snapshot without pending items, got %#v", it)
		}
	}
	got := ids(persisted)
	want := ids(st.Items())
	if !equalStrings(got, want) {
		t.Fatalf("expected persisted order to match memory order, got %v want %v", got, want)
	}
}
