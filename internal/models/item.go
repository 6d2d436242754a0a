package models

// HistoryItem is one entry of the clipboard history. Binary payloads live in
// the blob store and are referenced by BlobID only.
type HistoryItem struct {
	ID        string   `json:"id" yaml:"id"`
	Kind      ItemKind `json:"kind" yaml:"kind"`
	CreatedAt int64    `json:"createdAt" yaml:"created_at"`

	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	HTML string `json:"html,omitempty" yaml:"html,omitempty"`

	BlobID  string `json:"blobId,omitempty" yaml:"blob_id,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	MIME    string `json:"mime,omitempty" yaml:"mime,omitempty"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
	DataURL string `json:"dataUrl,omitempty" yaml:"-"`

	// Session-only state.
	Pending  bool `json:"-" yaml:"pending,omitempty"`
	Error    bool `json:"-" yaml:"error,omitempty"`
	Expanded bool `json:"-" yaml:"-"`
	Missing  bool `json:"-" yaml:"missing,omitempty"`
}

// HasContent reports whether a text item carries plain or rich content.
func (it HistoryItem) HasContent() bool {
	return it.Text != "" || it.HTML != ""
}

// Persistable reports whether the item may be written to the metadata store.
// Pending items wait for their blob write; failed writes without an inline
// fallback survive only for the current session.
func (it HistoryItem) Persistable() bool {
	if it.Pending {
		return false
	}
	switch it.Kind {
	case KindText:
		return it.HasContent()
	case KindImage, KindFile:
		if it.DataURL != "" {
			return true
		}
		return it.BlobID != "" && !it.Error
	default:
		return false
	}
}

// Stripped returns a copy without the session-only flags.
func (it HistoryItem) Stripped() HistoryItem {
	it.Pending = false
	it.Error = false
	it.Expanded = false
	it.Missing = false
	return it
}
