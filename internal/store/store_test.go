package store

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"clipstash/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestKVGetSetDelete(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if _, ok, err := st.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
	if err := st.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, ok, err := st.Get(ctx, "k")
	if err != nil || !ok || value != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", value, ok, err)
	}
	if err := st.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "k"); ok {
		t.Fatal("expected key deleted")
	}
	if err := st.Set(ctx, "", "v"); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestMigrationPlanUpToDate(t *testing.T) {
	st := testStore(t)
	status, err := st.MigrationPlan()
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if status.CurrentVersion != 1 || len(status.Pending) != 0 {
		t.Fatalf("unexpected status: %#v", status)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	st := testStore(t)
	meta := NewMetadata(st)
	ctx := context.Background()

	items := []models.HistoryItem{
		{ID: "3", Kind: models.KindImage, CreatedAt: 3, BlobID: "bl-3", Name: "a.png", MIME: "image/png", Size: 10, Expanded: true},
		{ID: "2", Kind: models.KindText, CreatedAt: 2, Text: "hello", HTML: "<b>hello</b>"},
		{ID: "1", Kind: models.KindFile, CreatedAt: 1, BlobID: "bl-1", Name: "a.pdf", MIME: "application/pdf", Size: 5, Error: true, DataURL: "data:application/pdf;base64,AAAA"},
	}
	if err := meta.Save(ctx, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := meta.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := make([]models.HistoryItem, 0, len(items))
	for _, it := range items {
		want = append(want, it.Stripped())
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, want)
	}
}

func TestMetadataSaveSkipsSessionOnlyItems(t *testing.T) {
	st := testStore(t)
	meta := NewMetadata(st)
	ctx := context.Background()

	items := []models.HistoryItem{
		{ID: "pending", Kind: models.KindImage, BlobID: "bl-p", Pending: true},
		{ID: "failed", Kind: models.KindFile, BlobID: "bl-f", Error: true},
		{ID: "empty", Kind: models.KindText},
		{ID: "ok", Kind: models.KindText, Text: "keep"},
	}
	if err := meta.Save(ctx, items); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, _, err := st.Get(ctx, HistoryKey)
	if err != nil {
		t.Fatalf("get raw: %v", err)
	}
	for _, field := range []string{"pending", "error", "expanded", "missing"} {
		if strings.Contains(raw, `"`+field+`"`) {
			t.Fatalf("expected transient field %q stripped from %s", field, raw)
		}
	}

	got, err := meta.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected only persistable item, got %#v", got)
	}
}

func TestMetadataLoadEmpty(t *testing.T) {
	meta := NewMetadata(testStore(t))
	got, err := meta.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestMetadataLoadCorrupt(t *testing.T) {
	st := testStore(t)
	if err := st.Set(context.Background(), HistoryKey, "{not json"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := NewMetadata(st).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewIDs(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		id, err := NewItemID()
		if err != nil {
			t.Fatalf("item id: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}

	blobID, err := NewBlobID()
	if err != nil {
		t.Fatalf("blob id: %v", err)
	}
	if !strings.HasPrefix(blobID, blobIDPrefix) {
		t.Fatalf("expected %s prefix, got %s", blobIDPrefix, blobID)
	}
}
