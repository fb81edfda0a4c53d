// Package nominatim implements the reverse-geocoding gateway against the
// OpenStreetMap Nominatim service. Nominatim's usage policy allows about
// one request per second, so calls go through a rate limiter, and results
// (including failures) are cached for a day keyed by rounded coordinates.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"toiletmap/pkg/limiter"
	"toiletmap/pkg/logging"
)

const (
	defaultBaseURL = "https://nominatim.openstreetmap.org/reverse"
	userAgent      = "toiletmap/1.0"
	cacheSize      = 1024
	cacheTTL       = 24 * time.Hour
)

// ErrNoAddress is returned when the service finds nothing at the
// coordinates.
var ErrNoAddress = errors.New("no address found for these coordinates")

type result struct {
	address string
	errMsg  string
}

// Gateway defines a Nominatim reverse-geocoding gateway.
type Gateway struct {
	baseURL string
	client  *http.Client
	limiter *limiter.Limiter
	cache   *expirable.LRU[string, result]
	logger  *zap.Logger
}

// New creates a Nominatim gateway. An empty baseURL selects the public
// instance.
func New(baseURL string, logger *zap.Logger) *Gateway {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger = logger.With(
		zap.String(logging.FieldComponent, "geocoding-gateway"),
		zap.String(logging.FieldType, "nominatim"),
	)
	return &Gateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter.New(logger, 1, 1),
		cache:   expirable.NewLRU[string, result](cacheSize, nil, cacheTTL),
		logger:  logger,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// ReverseGeocode resolves coordinates to a postal address.
func (g *Gateway) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	// Six decimals is about 0.1 m, plenty for cache identity.
	key := strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
	if r, ok := g.cache.Get(key); ok {
		if r.errMsg != "" {
			return "", errors.New(r.errMsg)
		}
		return r.address, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	addr, err := g.lookup(ctx, lat, lng)
	if err != nil {
		g.cache.Add(key, result{errMsg: err.Error()})
		return "", err
	}
	g.cache.Add(key, result{address: addr})
	return addr, nil
}

func (g *Gateway) lookup(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	g.logger.Debug("Calling geocoding service",
		zap.Float64("lat", lat),
		zap.Float64("lng", lng),
	)
	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("non-2xx status code: %v", resp.Status)
	}
	var v nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return "", err
	}
	if v.DisplayName == "" {
		return "", ErrNoAddress
	}
	return formatAddress(&v), nil
}

// formatAddress renders "road house_number, postcode city", falling back
// to the full display name when the structured parts are missing.
func formatAddress(v *nominatimResponse) string {
	a := v.Address
	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}
	street := strings.TrimSpace(a.Road + " " + a.HouseNumber)
	locality := strings.TrimSpace(a.Postcode + " " + city)
	switch {
	case street != "" && locality != "":
		return street + ", " + locality
	case street != "":
		return street
	case locality != "":
		return locality
	}
	return v.DisplayName
}
