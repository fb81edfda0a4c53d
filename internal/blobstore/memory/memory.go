// Package memory provides an in-memory blob store with the same
// revision-token semantics as the hosted one. Used by tests and local runs.
package memory

import (
	"context"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"toiletmap/internal/blobstore"
	"toiletmap/pkg/logging"
)

const tracerID = "blobstore-memory"

type blob struct {
	content  []byte
	revision string
}

// Store defines an in-memory blob store.
type Store struct {
	sync.RWMutex
	blobs  map[string]*blob
	logger *zap.Logger
}

// New creates a new in-memory blob store.
func New(logger *zap.Logger) *Store {
	logger = logger.With(
		zap.String(logging.FieldComponent, "blobstore"),
		zap.String(logging.FieldType, "memory"),
	)
	return &Store{blobs: map[string]*blob{}, logger: logger}
}

// Get returns the blob at p or blobstore.ErrNotFound.
func (s *Store) Get(ctx context.Context, p string) (*blobstore.Object, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Get")
	defer span.End()
	s.RLock()
	defer s.RUnlock()
	b, ok := s.blobs[p]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return &blobstore.Object{
		Content:  append([]byte(nil), b.content...),
		Revision: b.revision,
	}, nil
}

// Put writes content at p guarded by revision and returns the new revision.
func (s *Store) Put(ctx context.Context, p string, content []byte, revision, message string) (string, error) {
	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Put")
	defer span.End()
	s.Lock()
	defer s.Unlock()
	existing, ok := s.blobs[p]
	if ok && existing.revision != revision {
		return "", blobstore.ErrConflict
	}
	if !ok && revision != "" {
		return "", blobstore.ErrNotFound
	}
	next := uuid.NewString()
	s.blobs[p] = &blob{content: append([]byte(nil), content...), revision: next}
	s.logger.Debug("Stored blob", zap.String(logging.FieldPath, p), zap.String("message", message))
	return next, nil
}

// Delete removes the blob at p guarded by revision.
func (s *Store) Delete(ctx context.Context, p string, revision, message string) error {
	_, span := otel.Tracer(tracerID).Start(ctx, "Store/Delete")
	defer span.End()
	s.Lock()
	defer s.Unlock()
	existing, ok := s.blobs[p]
	if !ok {
		return blobstore.ErrNotFound
	}
	if existing.revision != revision {
		return blobstore.ErrConflict
	}
	delete(s.blobs, p)
	s.logger.Debug("Deleted blob", zap.String(logging.FieldPath, p), zap.String("message", message))
	return nil
}

// List enumerates the direct children of dir.
func (s *Store) List(_ context.Context, dir string) ([]blobstore.Entry, error) {
	s.RLock()
	defer s.RUnlock()
	dir = strings.TrimSuffix(dir, "/")
	seen := map[string]bool{}
	var entries []blobstore.Entry
	for p := range s.blobs {
		if !strings.HasPrefix(p, dir+"/") {
			continue
		}
		rest := strings.TrimPrefix(p, dir+"/")
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, blobstore.Entry{Name: name, IsFile: !nested})
	}
	return entries, nil
}

// PublicURL derives a memory:// pseudo-URL, stable for tests.
func (s *Store) PublicURL(p string) string {
	return "memory://" + path.Clean(p)
}
