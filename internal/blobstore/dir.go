package blobstore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"clipstash/internal/models"
)

const (
	dataSuffix = ".blob"
	metaSuffix = ".json"
	tmpDirName = "tmp"
)

// DirStore keeps one payload file plus a JSON sidecar per blob in a sharded
// directory tree. Writes go through a temp file and rename.
type DirStore struct {
	root string
	now  func() time.Time
}

// NewDirStore creates a directory store rooted at root.
func NewDirStore(root string) (*DirStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("blob dir root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), 0o755); err != nil {
		return nil, err
	}
	return &DirStore{root: abs, now: time.Now}, nil
}

// Put writes the payload then its sidecar, replacing any previous record.
func (d *DirStore) Put(ctx context.Context, rec models.BlobRecord) (models.BlobRecord, error) {
	if d == nil {
		return models.BlobRecord{}, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return models.BlobRecord{}, err
	}
	if err := ValidateID(rec.ID); err != nil {
		return models.BlobRecord{}, err
	}
	rec.Size = int64(len(rec.Data))
	rec.SavedAt = d.now().UnixMilli()

	meta, err := json.Marshal(rec)
	if err != nil {
		return models.BlobRecord{}, err
	}

	dataPath, metaPath := d.paths(rec.ID)
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return models.BlobRecord{}, err
	}
	if err := d.writeAtomic(dataPath, rec.Data); err != nil {
		return models.BlobRecord{}, err
	}
	if err := d.writeAtomic(metaPath, meta); err != nil {
		_ = os.Remove(dataPath)
		return models.BlobRecord{}, err
	}
	return rec, nil
}

// Get returns a record or nil when either file is missing.
func (d *DirStore) Get(ctx context.Context, id string) (*models.BlobRecord, error) {
	if d == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	dataPath, metaPath := d.paths(id)
	meta, err := os.ReadFile(metaPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := &models.BlobRecord{}
	if err := json.Unmarshal(meta, rec); err != nil {
		return nil, fmt.Errorf("decode blob meta %s: %w", id, err)
	}

	data, err := os.ReadFile(dataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.ID = id
	rec.Data = data
	return rec, nil
}

// Exists reports whether both files of a blob are present.
func (d *DirStore) Exists(ctx context.Context, id string) (bool, error) {
	if d == nil {
		return false, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := ValidateID(id); err != nil {
		return false, err
	}
	dataPath, metaPath := d.paths(id)
	for _, path := range []string{metaPath, dataPath} {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Delete removes a blob. Missing files are ignored.
func (d *DirStore) Delete(ctx context.Context, id string) error {
	if d == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateID(id); err != nil {
		return err
	}
	dataPath, metaPath := d.paths(id)
	for _, path := range []string{metaPath, dataPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Clear removes every shard directory.
func (d *DirStore) Clear(ctx context.Context) error {
	if d == nil {
		return fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == tmpDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(d.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op for the directory backend.
func (d *DirStore) Close() error {
	return nil
}

// shardOf spreads ids over 256 directories by hash, since ids share a
// common prefix.
func shardOf(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:1])
}

func (d *DirStore) paths(id string) (string, string) {
	base := filepath.Join(d.root, shardOf(id), id)
	return base + dataSuffix, base + metaSuffix
}

func (d *DirStore) writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Join(d.root, tmpDirName), "put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
