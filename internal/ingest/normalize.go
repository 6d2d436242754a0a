package ingest

import (
	"context"
	"fmt"
	"strings"

	"clipstash/internal/models"
)

const (
	mimePlain   = "text/plain"
	mimeHTML    = "text/html"
	mimeURIList = "text/uri-list"

	fallbackMIME = "application/octet-stream"
)

// EntryKind tags a data-transfer entry as a file or a string.
type EntryKind int

const (
	EntryString EntryKind = iota
	EntryFile
)

// FilePayload is one file delivered by paste or drop.
type FilePayload struct {
	Name         string
	MIME         string
	Data         []byte
	LastModified int64
}

// TransferEntry is one entry of a paste event's data transfer, in the order
// the platform delivered it.
type TransferEntry struct {
	Kind EntryKind
	Type string
	Data string
	File *FilePayload
}

// ClipboardBundle is one clipboard item from an explicit clipboard read. It
// lists the available types and fetches bytes per type.
type ClipboardBundle interface {
	Types() []string
	Fetch(ctx context.Context, mimeType string) ([]byte, error)
}

type textBuilder struct {
	plain    string
	hasPlain bool
	html     string
	hasHTML  bool
	uris     []string
}

func (b *textBuilder) candidate() models.TextCandidate {
	text := b.plain
	for _, uri := range b.uris {
		if containsLine(text, uri) {
			continue
		}
		if text == "" {
			text = uri
		} else {
			text += "\n" + uri
		}
	}
	return models.TextCandidate{Plain: text, HTML: b.html}
}

// NormalizeDataTransfer turns paste entries into candidates. Adjacent plain,
// HTML and URI-list strings are parallel representations of one text item
// and coalesce into one candidate; files flush the pending text and become
// file candidates. A second representation of an already filled type starts
// a new text candidate.
func NormalizeDataTransfer(entries []TransferEntry) []models.Candidate {
	var out []models.Candidate
	var pending *textBuilder

	flush := func() {
		if pending != nil {
			out = append(out, pending.candidate())
			pending = nil
		}
	}
	current := func() *textBuilder {
		if pending == nil {
			pending = &textBuilder{}
		}
		return pending
	}

	for _, entry := range entries {
		switch entry.Kind {
		case EntryFile:
			flush()
			if entry.File != nil {
				out = append(out, fileCandidate(*entry.File))
			}
		case EntryString:
			switch baseMIME(entry.Type) {
			case mimePlain:
				if pending != nil && pending.hasPlain {
					flush()
				}
				b := current()
				b.plain, b.hasPlain = entry.Data, true
			case mimeHTML:
				if pending != nil && pending.hasHTML {
					flush()
				}
				b := current()
				b.html, b.hasHTML = entry.Data, true
			case mimeURIList:
				b := current()
				b.uris = append(b.uris, parseURIList(entry.Data)...)
			}
		}
	}
	flush()
	return out
}

// NormalizeFiles turns dropped files into file candidates. Drops never carry text.
func NormalizeFiles(files []FilePayload) []models.Candidate {
	out := make([]models.Candidate, 0, len(files))
	for _, f := range files {
		out = append(out, fileCandidate(f))
	}
	return out
}

// NormalizeClipboardRead turns clipboard-read bundles into candidates. Each
// bundle yields at most one merged text candidate plus one file candidate per
// non-text type. Fetch failures skip that type; a cancelled context aborts.
func (p *Pipeline) NormalizeClipboardRead(ctx context.Context, bundles []ClipboardBundle) ([]models.Candidate, error) {
	var out []models.Candidate
	fileIndex := 0

	for _, bundle := range bundles {
		if bundle == nil {
			continue
		}
		types := bundle.Types()

		var text models.TextCandidate
		hasText := false
		for _, want := range []string{mimeHTML, mimePlain} {
			mimeType, ok := findType(types, want)
			if !ok {
				continue
			}
			data, err := bundle.Fetch(ctx, mimeType)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				p.logger.Debug("clipboard text fetch failed", "type", mimeType, "error", err)
				continue
			}
			if want == mimeHTML {
				text.HTML = string(data)
			} else {
				text.Plain = string(data)
			}
			hasText = true
		}
		if hasText {
			out = append(out, text)
		}

		for _, mimeType := range types {
			if models.MediaTopLevel(mimeType) == "text" {
				continue
			}
			data, err := bundle.Fetch(ctx, mimeType)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				p.logger.Debug("clipboard fetch failed", "type", mimeType, "error", err)
				continue
			}
			fileIndex++
			out = append(out, models.FileCandidate{
				Data:         data,
				Name:         generatedName(mimeType, fileIndex),
				MIME:         baseMIME(mimeType),
				LastModified: p.now().UnixMilli(),
			})
		}
	}
	return out, nil
}

func fileCandidate(f FilePayload) models.FileCandidate {
	data := f.Data
	if data == nil {
		data = []byte{}
	}
	return models.FileCandidate{
		Data:         data,
		Name:         strings.TrimSpace(f.Name),
		MIME:         baseMIME(f.MIME),
		LastModified: f.LastModified,
	}
}

func baseMIME(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(raw, ";"); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	return raw
}

func findType(types []string, want string) (string, bool) {
	for _, t := range types {
		if baseMIME(t) == want {
			return t, true
		}
	}
	return "", false
}

func parseURIList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

func containsLine(text, line string) bool {
	for _, existing := range strings.Split(text, "\n") {
		if strings.TrimSpace(existing) == line {
			return true
		}
	}
	return false
}

// generatedName names a clipboard-read file after its subtype. The name is
// deterministic so a double-fired read produces the same signature.
func generatedName(mimeType string, index int) string {
	return fmt.Sprintf("clipboard-%d.%s", index, extensionFor(mimeType))
}

func extensionFor(mimeType string) string {
	sub := models.MediaSubtype(mimeType)
	if i := strings.Index(sub, "+"); i >= 0 {
		sub = sub[:i]
	}
	sub = strings.TrimPrefix(sub, "x-")
	switch sub {
	case "jpeg":
		return "jpg"
	case "plain":
		return "txt"
	}
	var b strings.Builder
	for _, r := range sub {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}
