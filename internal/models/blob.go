package models

// BlobRecord is one binary payload kept by the blob store.
type BlobRecord struct {
	ID           string `json:"id"`
	Data         []byte `json:"-"`
	MIME         string `json:"mime"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
	SavedAt      int64  `json:"savedAt"`
}
