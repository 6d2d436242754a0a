package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clipstash/internal/models"
)

func testBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqliteStore, err := Open(BackendSQLite, filepath.Join(dir, "blobs.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	dirStore, err := Open(BackendDir, filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("open dir: %v", err)
	}
	t.Cleanup(func() {
		sqliteStore.Close()
		dirStore.Close()
	})
	return map[string]Store{BackendSQLite: sqliteStore, BackendDir: dirStore}
}

func TestStorePutGetDeleteClear(t *testing.T) {
	for name, st := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			before := time.Now().UnixMilli()

			saved, err := st.Put(ctx, models.BlobRecord{
				ID:           "blob-1",
				Data:         []byte("hello"),
				MIME:         "text/plain",
				Name:         "hello.txt",
				Size:         999,
				LastModified: 1234,
			})
			if err != nil {
				t.Fatalf("put: %v", err)
			}
			if saved.SavedAt < before {
				t.Fatalf("expected store-assigned saved_at, got %d", saved.SavedAt)
			}
			if saved.Size != 5 {
				t.Fatalf("expected size from payload, got %d", saved.Size)
			}

			got, err := st.Get(ctx, "blob-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got == nil {
				t.Fatal("expected record")
			}
			if !bytes.Equal(got.Data, []byte("hello")) || got.MIME != "text/plain" || got.Name != "hello.txt" || got.LastModified != 1234 {
				t.Fatalf("unexpected record: %#v", got)
			}
			if got.SavedAt != saved.SavedAt {
				t.Fatalf("expected saved_at %d, got %d", saved.SavedAt, got.SavedAt)
			}

			if _, err := st.Put(ctx, models.BlobRecord{ID: "blob-2", Data: []byte("x")}); err != nil {
				t.Fatalf("put second: %v", err)
			}

			if err := st.Delete(ctx, "blob-1"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := st.Delete(ctx, "blob-1"); err != nil {
				t.Fatalf("delete missing should be noop: %v", err)
			}
			if got, err := st.Get(ctx, "blob-1"); err != nil || got != nil {
				t.Fatalf("expected deleted record absent, got %#v err=%v", got, err)
			}

			if err := st.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if got, err := st.Get(ctx, "blob-2"); err != nil || got != nil {
				t.Fatalf("expected cleared record absent, got %#v err=%v", got, err)
			}

			if _, err := st.Put(ctx, models.BlobRecord{ID: "blob-3", Data: []byte("after clear")}); err != nil {
				t.Fatalf("put after clear: %v", err)
			}
		})
	}
}

func TestStorePutReplaces(t *testing.T) {
	for name, st := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := st.Put(ctx, models.BlobRecord{ID: "same", Data: []byte("one")}); err != nil {
				t.Fatalf("put one: %v", err)
			}
			if _, err := st.Put(ctx, models.BlobRecord{ID: "same", Data: []byte("two"), MIME: "text/plain"}); err != nil {
				t.Fatalf("put two: %v", err)
			}
			got, err := st.Get(ctx, "same")
			if err != nil || got == nil {
				t.Fatalf("get: %#v %v", got, err)
			}
			if string(got.Data) != "two" || got.MIME != "text/plain" {
				t.Fatalf("expected replaced record, got %#v", got)
			}
		})
	}
}

func TestStoreRejectsInvalidIDs(t *testing.T) {
	for name, st := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{"", "  ", "../escape", "a/b", ".hidden"} {
				if _, err := st.Put(ctx, models.BlobRecord{ID: id, Data: []byte("x")}); err == nil {
					t.Fatalf("expected put error for id %q", id)
				}
				if _, err := st.Get(ctx, id); err == nil {
					t.Fatalf("expected get error for id %q", id)
				}
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("s3", t.TempDir()); err == nil {
		t.Fatal("expected unknown backend error")
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"0190c2a4-7b1e-7c3d-9a8b-1234567890ab", "b1", "x_y.z"}
	for _, id := range valid {
		if err := ValidateID(id); err != nil {
			t.Fatalf("expected %q to be valid: %v", id, err)
		}
	}
	invalid := []string{"", "a b", "a/b", "..", ".x", string(make([]byte, maxIDLength+1))}
	for _, id := range invalid {
		if err := ValidateID(id); err == nil {
			t.Fatalf("expected %q to be invalid", id)
		}
	}
}

func TestStoreExists(t *testing.T) {
	for name, st := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if ok, err := st.Exists(ctx, "blob-x"); err != nil || ok {
				t.Fatalf("expected absent blob, got %v %v", ok, err)
			}
			if _, err := st.Put(ctx, models.BlobRecord{ID: "blob-x", Data: []byte("x")}); err != nil {
				t.Fatalf("put: %v", err)
			}
			if ok, err := st.Exists(ctx, "blob-x"); err != nil || !ok {
				t.Fatalf("expected stored blob, got %v %v", ok, err)
			}
			if err := st.Delete(ctx, "blob-x"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if ok, err := st.Exists(ctx, "blob-x"); err != nil || ok {
				t.Fatalf("expected deleted blob, got %v %v", ok, err)
			}
			if _, err := st.Exists(ctx, "../escape"); err == nil {
				t.Fatal("expected invalid id error")
			}
		})
	}
}

func TestDirStoreSpreadsPrefixedIDs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	st, err := NewDirStore(root)
	if err != nil {
		t.Fatalf("open dir store: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("bl-%02d", i)
		if _, err := st.Put(ctx, models.BlobRecord{ID: id, Data: []byte(id)}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	shards := 0
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != tmpDirName {
			shards++
			if len(entry.Name()) != 2 {
				t.Fatalf("unexpected shard name %q", entry.Name())
			}
		}
	}
	if shards < 8 {
		t.Fatalf("expected ids spread across shards, got %d shard(s)", shards)
	}
	if shardOf("bl-01") != shardOf("bl-01") {
		t.Fatal("expected stable shard")
	}
}
