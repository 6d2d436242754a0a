package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"clipstash/internal/blobproto"
	"clipstash/internal/models"
	"clipstash/internal/store"
	"clipstash/internal/transcode"
)

// ingestFile inserts a pending item for c and starts its blob write.
func (p *Pipeline) ingestFile(ctx context.Context, c models.FileCandidate) (bool, error) {
	if p.blobs == nil {
		return false, fmt.Errorf("blob writer is not configured")
	}

	payload := transcode.Payload{Data: c.Data, MIME: c.MIME, Name: c.Name}
	if models.IsImageMIME(payload.MIME) && p.transcoder != nil {
		payload = p.transcoder.Transcode(ctx, payload)
	}
	if payload.MIME == "" {
		payload.MIME = fallbackMIME
	}
	if payload.Data == nil {
		payload.Data = []byte{}
	}

	kind := c.KindHint
	if models.IsImageMIME(payload.MIME) {
		kind = models.KindImage
	} else if kind == "" || kind == models.KindText {
		kind = models.KindFile
	}

	id, err := store.NewItemID()
	if err != nil {
		return false, err
	}
	blobID, err := store.NewBlobID()
	if err != nil {
		return false, err
	}

	item := models.HistoryItem{
		ID:        id,
		Kind:      kind,
		CreatedAt: p.now().UnixMilli(),
		BlobID:    blobID,
		Name:      payload.Name,
		MIME:      payload.MIME,
		Size:      int64(len(payload.Data)),
		Pending:   true,
	}
	p.history.InsertAtHead(item)

	in := blobproto.PutInput{
		ID:           blobID,
		Data:         payload.Data,
		MIME:         payload.MIME,
		Name:         payload.Name,
		LastModified: c.LastModified,
	}
	p.writes.Add(1)
	go func() {
		defer p.writes.Done()
		p.writeBlob(item.ID, in)
	}()
	return true, nil
}

// writeBlob stores one payload and settles the item it belongs to. A failed
// write is never retried.
func (p *Pipeline) writeBlob(itemID string, in blobproto.PutInput) {
	ctx, cancel := context.WithTimeout(context.Background(), blobWriteTimeout)
	defer cancel()

	started := time.Now()
	err := p.blobs.Put(ctx, in)
	if err == nil {
		p.logger.Debug("blob stored", "blob_id", in.ID, "size", len(in.Data), "elapsed", time.Since(started))
		if !p.history.Update(itemID, func(it *models.HistoryItem) {
			it.Pending = false
		}) {
			p.dropOrphan(ctx, itemID, in.ID)
		}
		return
	}

	p.metrics.blobFailures.Inc()
	dataURL := inlineDataURL(in.MIME, in.Data, p.maxInline)
	if dataURL != "" {
		p.metrics.inlineFallbacks.Inc()
	}
	p.logger.Warn("blob write failed",
		"blob_id", in.ID,
		"size", len(in.Data),
		"inline_fallback", dataURL != "",
		"error", err,
	)
	if !p.history.Update(itemID, func(it *models.HistoryItem) {
		it.Pending = false
		it.Error = true
		it.DataURL = dataURL
	}) {
		p.logger.Debug("item removed before blob write settled", "id", itemID)
	}
}

// dropOrphan deletes a blob stored after its item was removed. The history
// store's own delete may have run before the write landed.
func (p *Pipeline) dropOrphan(ctx context.Context, itemID, blobID string) {
	p.logger.Debug("item removed before blob write settled", "id", itemID, "blob_id", blobID)
	if err := p.blobs.Delete(ctx, blobID); err != nil {
		p.logger.Warn("delete orphaned blob failed", "blob_id", blobID, "error", err)
	}
}

// inlineDataURL encodes data as a data URL, or returns "" when the result
// would exceed limit.
func inlineDataURL(mimeType string, data []byte, limit int) string {
	if limit <= 0 {
		return ""
	}
	prefix := "data:" + mimeType + ";base64,"
	if len(prefix)+base64.StdEncoding.EncodedLen(len(data)) > limit {
		return ""
	}
	var b strings.Builder
	b.Grow(len(prefix) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(prefix)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}
