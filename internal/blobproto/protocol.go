// Package blobproto is the message protocol between the history side and the
// blob worker, the worker itself, and the client facade used by ingest.
package blobproto

import (
	"errors"
)

// Request tags.
const (
	TypePut    = "blob.put"
	TypeGet    = "blob.get"
	TypeHas    = "blob.has"
	TypeDelete = "blob.delete"
	TypeClear  = "blob.clear"
	TypePing   = "ping"
)

// Protocol error strings.
const (
	ErrCodeNotFound    = "not_found"
	ErrCodeUnknownType = "unknown_type"
	ErrCodeBadRequest  = "bad_request"
)

var (
	// ErrNotFound reports a blob id absent from the blob store.
	ErrNotFound = errors.New("blob not found")
	// ErrClosed reports a request sent after the worker stopped.
	ErrClosed = errors.New("blob worker closed")
)

// Request is one message to the worker. Fields beyond Type depend on the tag.
type Request struct {
	Type         string `json:"type"`
	ID           string `json:"id,omitempty"`
	Buffer       []byte `json:"buffer,omitempty"`
	MIME         string `json:"mime,omitempty"`
	Name         string `json:"name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// Response is the worker's answer. Every request gets exactly one.
type Response struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
	Buffer       []byte `json:"buffer,omitempty"`
	MIME         string `json:"mime,omitempty"`
	Name         string `json:"name,omitempty"`
	Size         int64  `json:"size,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
	SavedAt      int64  `json:"savedAt,omitempty"`
	TS           int64  `json:"ts,omitempty"`
}

func okResponse() Response {
	return Response{OK: true}
}

func failure(code string) Response {
	return Response{OK: false, Error: code}
}

// ResponseError converts a failed response into an error.
type ResponseError struct {
	Type string
	Code string
}

func (e *ResponseError) Error() string {
	return e.Type + ": " + e.Code
}

// Is lets errors.Is(err, ErrNotFound) match not_found responses.
func (e *ResponseError) Is(target error) bool {
	return target == ErrNotFound && e.Code == ErrCodeNotFound
}
