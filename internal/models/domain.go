package models

import (
	"fmt"
	"strings"
)

// ItemKind defines the kinds of entries kept in the clipboard history.
type ItemKind string

const (
	KindText  ItemKind = "text"
	KindImage ItemKind = "image"
	KindFile  ItemKind = "file"
)

var validItemKinds = map[ItemKind]struct{}{
	KindText:  {},
	KindImage: {},
	KindFile:  {},
}

// IsValidItemKind reports whether kind is one of the known history kinds.
func IsValidItemKind(kind ItemKind) bool {
	_, ok := validItemKinds[kind]
	return ok
}

// ParseItemKind normalizes and validates a raw kind string.
func ParseItemKind(raw string) (ItemKind, error) {
	value := ItemKind(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("item kind is required")
	}
	if !IsValidItemKind(value) {
		return "", fmt.Errorf("invalid item kind: %s", value)
	}
	return value, nil
}

// MediaTopLevel returns the lower-cased top-level type of a MIME string
// ("image" for "image/png; q=1"), or "" when none is present.
func MediaTopLevel(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexAny(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	top, _, ok := strings.Cut(mimeType, "/")
	if !ok {
		return ""
	}
	return strings.TrimSpace(top)
}

// MediaSubtype returns the lower-cased subtype of a MIME string without
// parameters ("svg+xml" for "image/svg+xml").
func MediaSubtype(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexAny(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok {
		return ""
	}
	return strings.TrimSpace(sub)
}

// IsImageMIME reports whether mimeType has the image top-level type.
func IsImageMIME(mimeType string) bool {
	return MediaTopLevel(mimeType) == "image"
}
