package widget

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"strings"

	"clipstash/internal/models"
)

// ClipboardWriter writes to the platform clipboard.
type ClipboardWriter interface {
	WriteRich(ctx context.Context, htmlBody, plain string) error
	WritePlain(ctx context.Context, plain string) error
}

// CopyOutcome reports how far a copy got.
type CopyOutcome int

const (
	CopyRich CopyOutcome = iota
	CopyPlain
	CopyBlocked
)

func (o CopyOutcome) String() string {
	switch o {
	case CopyRich:
		return "rich"
	case CopyPlain:
		return "plain"
	default:
		return "blocked"
	}
}

var (
	// ErrNothingToCopy is returned by CopyAll on an empty history.
	ErrNothingToCopy = errors.New("nothing to copy")
	// ErrClipboardUnavailable is returned when no clipboard writer is set.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

type clip struct {
	html  []string
	plain []string
}

// CopyItem writes one item to the clipboard.
func (w *Widget) CopyItem(ctx context.Context, id string) (CopyOutcome, error) {
	it, err := w.Item(id)
	if err != nil {
		return CopyBlocked, err
	}
	var c clip
	w.appendItem(ctx, &c, it)
	return w.write(ctx, c)
}

// CopyAll writes every item, newest first, as one combined clipboard entry.
func (w *Widget) CopyAll(ctx context.Context) (CopyOutcome, error) {
	items := w.history.Items()
	if len(items) == 0 {
		return CopyBlocked, ErrNothingToCopy
	}
	var c clip
	for _, it := range items {
		w.appendItem(ctx, &c, it)
	}
	return w.write(ctx, c)
}

// write degrades from rich to plain to blocked.
func (w *Widget) write(ctx context.Context, c clip) (CopyOutcome, error) {
	if w.clipboard == nil {
		return CopyBlocked, ErrClipboardUnavailable
	}
	htmlBody := strings.Join(c.html, "\n")
	plain := strings.Join(c.plain, "\n\n")

	richErr := w.clipboard.WriteRich(ctx, htmlBody, plain)
	if richErr == nil {
		return CopyRich, nil
	}
	w.logger.Debug("rich copy failed, falling back to plain text", "error", richErr)

	plainErr := w.clipboard.WritePlain(ctx, plain)
	if plainErr == nil {
		return CopyPlain, nil
	}
	w.logger.Warn("copy blocked", "rich_error", richErr, "plain_error", plainErr)
	return CopyBlocked, fmt.Errorf("copy blocked: %w", errors.Join(richErr, plainErr))
}

func (w *Widget) appendItem(ctx context.Context, c *clip, it models.HistoryItem) {
	switch it.Kind {
	case models.KindText:
		if it.HTML != "" {
			c.html = append(c.html, it.HTML)
		} else {
			c.html = append(c.html, textToHTML(it.Text))
		}
		if it.Text != "" {
			c.plain = append(c.plain, it.Text)
		}
	case models.KindImage:
		label := displayName(it)
		c.plain = append(c.plain, label)
		h, err := w.Resolve(ctx, it.ID)
		if err != nil {
			w.logger.Debug("image left out of rich copy", "id", it.ID, "error", err)
			c.html = append(c.html, "<p>"+html.EscapeString(label)+"</p>")
			return
		}
		src := "data:" + h.MIME + ";base64," + base64.StdEncoding.EncodeToString(h.Data)
		c.html = append(c.html, fmt.Sprintf(`<img src="%s" alt="%s">`, src, html.EscapeString(label)))
	default:
		label := displayName(it)
		c.plain = append(c.plain, label)
		c.html = append(c.html, "<p>"+html.EscapeString(label)+"</p>")
	}
}

func displayName(it models.HistoryItem) string {
	if it.Name != "" {
		return it.Name
	}
	if it.MIME != "" {
		return it.MIME
	}
	return string(it.Kind)
}

func textToHTML(text string) string {
	lines := strings.Split(html.EscapeString(text), "\n")
	return "<p>" + strings.Join(lines, "<br>") + "</p>"
}
