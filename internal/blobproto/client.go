package blobproto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"clipstash/internal/models"
)

const handleURLPrefix = "blob:clipstash/"

// Transport carries one request to the blob worker and returns its answer.
type Transport interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// PutInput describes one payload to store.
type PutInput struct {
	ID           string
	Data         []byte
	MIME         string
	Name         string
	LastModified int64
}

// Handle is a session-local decoded object for one blob. Its URL is only
// meaningful within the current process.
type Handle struct {
	BlobID string
	URL    string
	MIME   string
	Name   string
	Size   int64
	Data   []byte
}

// Client is the asynchronous facade over the blob worker with a session
// cache of decoded handles.
type Client struct {
	transport Transport
	logger    *slog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewClient constructs a client over transport.
func NewClient(transport Transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		logger:    logger.With("component", "blob_client"),
		handles:   map[string]*Handle{},
	}
}

func (c *Client) send(ctx context.Context, req Request) (Response, error) {
	if c == nil || c.transport == nil {
		return Response{}, fmt.Errorf("blob client is not configured")
	}
	resp, err := c.transport.Send(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%s: %w", req.Type, err)
	}
	if !resp.OK {
		return resp, &ResponseError{Type: req.Type, Code: resp.Error}
	}
	return resp, nil
}

// Put stores one payload and seeds the session cache with it.
func (c *Client) Put(ctx context.Context, in PutInput) error {
	_, err := c.send(ctx, Request{
		Type:         TypePut,
		ID:           in.ID,
		Buffer:       in.Data,
		MIME:         in.MIME,
		Name:         in.Name,
		Size:         int64(len(in.Data)),
		LastModified: in.LastModified,
	})
	if err != nil {
		return err
	}
	c.cache(in.ID, in.MIME, in.Name, in.Data)
	return nil
}

// Get fetches one record. Absent ids return ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*models.BlobRecord, error) {
	resp, err := c.send(ctx, Request{Type: TypeGet, ID: id})
	if err != nil {
		return nil, err
	}
	return &models.BlobRecord{
		ID:           id,
		Data:         resp.Buffer,
		MIME:         resp.MIME,
		Name:         resp.Name,
		Size:         resp.Size,
		LastModified: resp.LastModified,
		SavedAt:      resp.SavedAt,
	}, nil
}

// Has reports whether the worker stores id, without transferring the payload.
func (c *Client) Has(ctx context.Context, id string) (bool, error) {
	if _, err := c.send(ctx, Request{Type: TypeHas, ID: id}); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete releases the session handle for id and removes the durable record.
func (c *Client) Delete(ctx context.Context, id string) error {
	c.Release(id)
	_, err := c.send(ctx, Request{Type: TypeDelete, ID: id})
	return err
}

// Clear releases every session handle and removes all durable records.
func (c *Client) Clear(ctx context.Context) error {
	c.ReleaseAll()
	_, err := c.send(ctx, Request{Type: TypeClear})
	return err
}

// Ping round-trips to the worker and returns its clock.
func (c *Client) Ping(ctx context.Context) (time.Time, error) {
	resp, err := c.send(ctx, Request{Type: TypePing})
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(resp.TS), nil
}

// Resolve returns the cached handle for id, loading it from the worker on
// first use. Absent blobs return ErrNotFound.
func (c *Client) Resolve(ctx context.Context, id string) (*Handle, error) {
	c.mu.Lock()
	if h, ok := c.handles[id]; ok {
		c.mu.Unlock()
		return h, nil
	}
	c.mu.Unlock()

	rec, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.cache(id, rec.MIME, rec.Name, rec.Data), nil
}

// Release drops the session handle for id, if any.
func (c *Client) Release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.handles[id]; ok {
		delete(c.handles, id)
		c.logger.Debug("released blob handle", "blob_id", id)
	}
}

// ReleaseAll drops every session handle.
func (c *Client) ReleaseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles = map[string]*Handle{}
}

// Handles returns the number of live session handles.
func (c *Client) Handles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

func (c *Client) cache(id, mimeType, name string, data []byte) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[id]; ok {
		return h
	}
	h := &Handle{
		BlobID: id,
		URL:    handleURLPrefix + uuid.NewString(),
		MIME:   mimeType,
		Name:   name,
		Size:   int64(len(data)),
		Data:   data,
	}
	c.handles[id] = h
	return h
}
