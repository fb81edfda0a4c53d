// Package github implements the blob store on top of a GitHub
// repository's contents API. The repository is treated as an opaque
// versioned key-value store: the blob SHA is the revision token and the
// contents API enforces the optimistic-concurrency check on writes.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"toiletmap/internal/blobstore"
	"toiletmap/pkg/logging"
)

const tracerID = "blobstore-github"

// Config identifies the backing repository. It is passed explicitly so
// several configurations can coexist; there is no package-level state.
type Config struct {
	Token   string
	Owner   string
	Repo    string
	Branch  string
	Timeout time.Duration
}

// Store defines a GitHub-backed blob store.
type Store struct {
	client  *github.Client
	cfg     Config
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a blob store backed by the configured repository.
func New(cfg Config, logger *zap.Logger) *Store {
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	logger = logger.With(
		zap.String(logging.FieldComponent, "blobstore"),
		zap.String(logging.FieldType, "github"),
	)
	client := github.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)
	return &Store{client: client, cfg: cfg, timeout: cfg.Timeout, logger: logger}
}

// Get returns the blob at path together with its SHA revision.
func (s *Store) Get(ctx context.Context, path string) (*blobstore.Object, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Store/Get")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fc, _, _, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, path,
		&github.RepositoryContentGetOptions{Ref: s.cfg.Branch})
	if err != nil {
		return nil, s.mapError(err)
	}
	if fc == nil {
		return nil, fmt.Errorf("path %q is a directory, not a blob", path)
	}
	content, err := fc.GetContent()
	if err != nil {
		return nil, err
	}
	return &blobstore.Object{Content: []byte(content), Revision: fc.GetSHA()}, nil
}

// Put writes content at path. An empty revision creates the blob, a
// non-empty one updates it and must match the stored SHA.
func (s *Store) Put(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Store/Put")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(s.cfg.Branch),
	}
	var (
		res *github.RepositoryContentResponse
		err error
	)
	if revision == "" {
		res, _, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, path, opts)
	} else {
		opts.SHA = github.String(revision)
		res, _, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, path, opts)
	}
	if err != nil {
		return "", s.mapError(err)
	}
	s.logger.Debug("Committed blob",
		zap.String(logging.FieldPath, path),
		zap.String("message", message),
	)
	return res.Content.GetSHA(), nil
}

// Delete removes the blob at path, guarded by its SHA revision.
func (s *Store) Delete(ctx context.Context, path string, revision, message string) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Store/Delete")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Branch:  github.String(s.cfg.Branch),
		SHA:     github.String(revision),
	}
	if _, _, err := s.client.Repositories.DeleteFile(ctx, s.cfg.Owner, s.cfg.Repo, path, opts); err != nil {
		return s.mapError(err)
	}
	return nil
}

// List enumerates the entries of a directory.
func (s *Store) List(ctx context.Context, dir string) ([]blobstore.Entry, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Store/List")
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, contents, _, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, dir,
		&github.RepositoryContentGetOptions{Ref: s.cfg.Branch})
	if err != nil {
		return nil, s.mapError(err)
	}
	entries := make([]blobstore.Entry, 0, len(contents))
	for _, c := range contents {
		entries = append(entries, blobstore.Entry{
			Name:   c.GetName(),
			IsFile: c.GetType() == "file",
		})
	}
	return entries, nil
}

// PublicURL derives the raw-content URL of a blob, without any
// authentication material.
func (s *Store) PublicURL(path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		s.cfg.Owner, s.cfg.Repo, s.cfg.Branch, path)
}

// mapError translates contents-API failures into store sentinels. The
// API answers 404 for absent blobs, 409 for SHA mismatches and 422 for
// a create against an already existing path.
func (s *Store) mapError(err error) error {
	var ge *github.ErrorResponse
	if errors.As(err, &ge) && ge.Response != nil {
		switch ge.Response.StatusCode {
		case http.StatusNotFound:
			return blobstore.ErrNotFound
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return blobstore.ErrConflict
		}
	}
	return err
}
