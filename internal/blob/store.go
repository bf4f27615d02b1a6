// Package blob stores finished archive bundles in pluggable backends.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // small flat key-value user metadata
}

// SignedURLOptions holds options for generating a pre-signed URL.
type SignedURLOptions struct {
	Method string        // GET only for now
	Expiry time.Duration // default 15m
}

// Info describes a stored archive object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	URL          string            `json:"url,omitempty"`
}

// Store is a minimal S3-like abstraction. Semantics mirror a small subset of
// S3 so the S3 adapter is nearly 1:1 while the filesystem adapter emulates
// them.
type Store interface {
	// Put stores a new object at key. Fails if the key already exists:
	// finished archives are immutable.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves contents and metadata.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes an object. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns objects whose key has the prefix, ordered by key ascending.
	List(ctx context.Context, prefix string) ([]Info, error)
	// PresignURL returns a time-limited GET URL, or ErrUnsupported.
	PresignURL(ctx context.Context, key string, opts SignedURLOptions) (string, error)
	// Driver reports the configured backend.
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blob: unsupported operation")

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
