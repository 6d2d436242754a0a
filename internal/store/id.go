package store

import (
	"fmt"

	"github.com/google/uuid"
)

const blobIDPrefix = "bl-"

// NewItemID returns a new time-ordered history item id. Ids are never reused.
func NewItemID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate item id: %w", err)
	}
	return id.String(), nil
}

// NewBlobID returns a new blob id. A blob is owned by exactly one item but
// its id is generated independently of the item id.
func NewBlobID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate blob id: %w", err)
	}
	return blobIDPrefix + id.String(), nil
}
