package models

import (
	"io"
	"time"
)

// UploadRequest describes one incoming file. It only lives for the duration of a request.
type UploadRequest struct {
	Filename    string
	ContentType string // as declared by the client, may be empty
	Size        int64
	Body        io.Reader
}

// StoredFile represents metadata about a file persisted in the upload directory.
type StoredFile struct {
	Name         string    `json:"name" msgpack:"name"`
	OriginalName string    `json:"originalName,omitempty" msgpack:"originalName,omitempty"`
	Size         int64     `json:"size" msgpack:"size"`
	ContentType  string    `json:"contentType,omitempty" msgpack:"contentType,omitempty"`
	DetectedType string    `json:"detectedType,omitempty" msgpack:"detectedType,omitempty"`
	StoredAt     time.Time `json:"storedAt" msgpack:"storedAt"`
}
