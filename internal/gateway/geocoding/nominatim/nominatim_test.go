package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "json", req.URL.Query().Get("format"))
		assert.NotEmpty(t, req.Header.Get("User-Agent"))
		w.Write([]byte(`{
			"display_name": "full display name",
			"address": {"road": "Wilsonova", "house_number": "8", "postcode": "12000", "city": "Praha"}
		}`))
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	addr, err := g.ReverseGeocode(context.Background(), 50.083, 14.435)
	require.NoError(t, err)
	assert.Equal(t, "Wilsonova 8, 12000 Praha", addr)
}

func TestReverseGeocodeFallsBackToDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"display_name": "somewhere remote"}`))
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	addr, err := g.ReverseGeocode(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "somewhere remote", addr)
}

func TestReverseGeocodeCachesByRoundedCoordinate(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"display_name": "cached place"}`))
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	ctx := context.Background()
	_, err := g.ReverseGeocode(ctx, 50.0830001, 14.435)
	require.NoError(t, err)
	// Within 1e-6 of the first lookup: served from cache.
	_, err = g.ReverseGeocode(ctx, 50.0830002, 14.435)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load())
}

func TestReverseGeocodeNoAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	_, err := g.ReverseGeocode(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestReverseGeocodeCachesFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := New(srv.URL, zap.NewNop())
	ctx := context.Background()
	_, err := g.ReverseGeocode(ctx, 3, 4)
	require.Error(t, err)
	_, err = g.ReverseGeocode(ctx, 3, 4)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
