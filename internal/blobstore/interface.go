// Package blobstore holds the durable side of the blob tier: binary records
// keyed by blob id, with no knowledge of the history ordering.
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"clipstash/internal/models"
)

const (
	BackendSQLite = "sqlite"
	BackendDir    = "dir"

	maxIDLength = 128
)

// Store is the byte-storage abstraction served by the blob worker.
// Get returns nil, nil when the id is absent. Put assigns SavedAt. Exists
// answers without reading the payload.
type Store interface {
	Put(ctx context.Context, rec models.BlobRecord) (models.BlobRecord, error)
	Get(ctx context.Context, id string) (*models.BlobRecord, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open builds the backend named by backend rooted at path. For the sqlite
// backend path is the database file; for the dir backend it is a directory.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return OpenSQLite(path)
	case BackendDir:
		return NewDirStore(path)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", backend)
	}
}

// ValidateID rejects ids that are empty, oversized or unsafe as file names.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("blob id is required")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("blob id is too long")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("invalid blob id")
		}
	}
	if id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return fmt.Errorf("invalid blob id")
	}
	return nil
}
