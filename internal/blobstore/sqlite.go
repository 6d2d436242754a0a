package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clipstash/internal/models"
	"clipstash/internal/sqlitedb"
)

var sqliteMigrations = []sqlitedb.Migration{
	{
		Version:     1,
		Description: "blobs table",
		SQL: `
CREATE TABLE IF NOT EXISTS blobs (
  id TEXT PRIMARY KEY,
  data BLOB NOT NULL,
  mime TEXT NOT NULL DEFAULT '',
  name TEXT NOT NULL DEFAULT '',
  size INTEGER NOT NULL,
  last_modified INTEGER NOT NULL DEFAULT 0,
  saved_at INTEGER NOT NULL
);
`,
	},
}

// SQLiteStore keeps blob records in their own SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and migrates) the blob database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(path, sqliteMigrations)
	if err != nil {
		return nil, fmt.Errorf("open blob db: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Put inserts or replaces one record.
func (s *SQLiteStore) Put(ctx context.Context, rec models.BlobRecord) (models.BlobRecord, error) {
	if err := ValidateID(rec.ID); err != nil {
		return models.BlobRecord{}, err
	}
	if rec.Data == nil {
		rec.Data = []byte{}
	}
	rec.Size = int64(len(rec.Data))
	rec.SavedAt = s.now().UnixMilli()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (id, data, mime, name, size, last_modified, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			mime = excluded.mime,
			name = excluded.name,
			size = excluded.size,
			last_modified = excluded.last_modified,
			saved_at = excluded.saved_at
	`, rec.ID, rec.Data, rec.MIME, rec.Name, rec.Size, rec.LastModified, rec.SavedAt)
	if err != nil {
		return models.BlobRecord{}, err
	}
	return rec, nil
}

// Get returns one record or nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.BlobRecord, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	rec := &models.BlobRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, data, mime, name, size, last_modified, saved_at FROM blobs WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Data, &rec.MIME, &rec.Name, &rec.Size, &rec.LastModified, &rec.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Exists reports whether a record for id is stored.
func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := ValidateID(id); err != nil {
		return false, err
	}
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blobs WHERE id = ? LIMIT 1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes one record. Missing ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs WHERE id = ?", id)
	return err
}

// Clear removes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM blobs")
	return err
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blobs").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
