// Package blobstore defines the versioned key-value store the service
// persists records into. A blob is addressed by path; every read returns
// an opaque revision token and every write to an existing blob must
// present the token from the preceding read (optimistic concurrency).
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blob exists at the requested path.
var ErrNotFound = errors.New("blob not found")

// ErrConflict is returned when a write carries a stale revision token.
// The caller should re-read and retry.
var ErrConflict = errors.New("blob revision conflict")

// Object is the content of a blob together with its current revision.
type Object struct {
	Content  []byte
	Revision string
}

// Entry describes one item of a directory listing.
type Entry struct {
	Name   string
	IsFile bool
}

// Store defines a versioned blob store.
type Store interface {
	// Get returns the blob at path or ErrNotFound.
	Get(ctx context.Context, path string) (*Object, error)
	// Put writes content at path and returns the new revision. An empty
	// revision creates the blob; a non-empty revision must match the
	// stored one or the write fails with ErrConflict.
	Put(ctx context.Context, path string, content []byte, revision, message string) (string, error)
	// Delete removes the blob at path, guarded by revision.
	Delete(ctx context.Context, path string, revision, message string) error
	// List enumerates the entries of a directory.
	List(ctx context.Context, dir string) ([]Entry, error)
	// PublicURL derives the stable public-read URL of a blob.
	PublicURL(path string) string
}
