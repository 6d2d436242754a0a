package models

// Candidate is a normalized, not yet committed history entry. The concrete
// variants are TextCandidate and FileCandidate.
type Candidate interface {
	isCandidate()
}

// TextCandidate carries the plain and rich forms of one logical text item.
type TextCandidate struct {
	Plain string
	HTML  string
}

// FileCandidate carries one binary payload.
type FileCandidate struct {
	Data         []byte
	Name         string
	MIME         string
	LastModified int64
	// KindHint is used when the final MIME type is not an image. Empty means file.
	KindHint ItemKind
}

func (TextCandidate) isCandidate() {}
func (FileCandidate) isCandidate() {}

// Empty reports whether both forms are empty.
func (c TextCandidate) Empty() bool {
	return c.Plain == "" && c.HTML == ""
}

// Size returns the payload length in bytes.
func (c FileCandidate) Size() int64 {
	return int64(len(c.Data))
}
