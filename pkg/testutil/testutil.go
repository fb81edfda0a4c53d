package testutil

import (
	"github.com/uber-go/tally/v6"
	"go.uber.org/zap"

	"toiletmap/internal/blobstore/memory"
	"toiletmap/internal/controller/toilet"
	httphandler "toiletmap/internal/handler/http"
	"toiletmap/pkg/logging"
)

// NewTestController wires a controller onto a fresh in-memory blob store.
func NewTestController(logger *zap.Logger) (*toilet.Controller, *memory.Store) {
	logger = logger.With(
		zap.String(logging.FieldService, "toiletmap"),
	)
	store := memory.New(logger)
	return toilet.New(store, nil, logger), store
}

// NewTestHandler wires the full HTTP handler onto an in-memory store.
func NewTestHandler(logger *zap.Logger) (*httphandler.Handler, *memory.Store) {
	store := memory.New(logger)
	ctrl := toilet.New(store, nil, logger)
	return httphandler.New(ctrl, logger, tally.NoopScope), store
}
