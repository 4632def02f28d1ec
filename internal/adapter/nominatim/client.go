package nominatim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crm-trigger-service/internal/config"
	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
)

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 1 << 20

// Client implements domain.Geocoder using the Nominatim search API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	referer        string
	forwardReferer bool
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// NewClient creates a Nominatim geocoding client. Every request is bounded by
// cfg.GeocoderTimeout.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.GeocoderTimeout,
		},
		baseURL:        strings.TrimRight(cfg.GeocoderBaseURL, "/"),
		userAgent:      cfg.GeocoderUserAgent,
		referer:        cfg.GeocoderReferer,
		forwardReferer: cfg.GeocoderForwardReferer,
		metrics:        metrics,
		logger:         logger,
	}
}

// Geocode returns the first match for req.Address. Transport errors, non-200
// responses, empty results and unparsable bodies all yield ok == false.
func (c *Client) Geocode(ctx context.Context, req domain.GeocodeRequest) (domain.GeocodeResult, bool) {
	start := time.Now()
	result, found, err := c.search(ctx, req)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding failed, no location recorded",
			"address", req.Address,
			"error", err,
		)
		return domain.GeocodeResult{}, false
	case !found:
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("geocoding returned no match", "address", req.Address)
		return domain.GeocodeResult{}, false
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		return result, true
	}
}

func (c *Client) search(ctx context.Context, req domain.GeocodeRequest) (domain.GeocodeResult, bool, error) {
	// url.Values encodes spaces in the query as '+'.
	params := url.Values{
		"q":              {req.Address},
		"format":         {"json"},
		"polygon":        {"1"},
		"addressdetails": {"1"},
	}
	fullURL := c.baseURL + "/search?" + params.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	if referer := c.refererFor(req); referer != "" {
		httpReq.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.GeocodeResult{}, false, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return domain.GeocodeResult{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return domain.GeocodeResult{}, false, nil
	}

	best := places[0]
	if !best.Lat.valid || !best.Lon.valid {
		return domain.GeocodeResult{}, false, errors.New("decode response: best match has no coordinates")
	}
	return domain.GeocodeResult{
		Latitude:    best.Lat.value,
		Longitude:   best.Lon.value,
		DisplayName: best.DisplayName,
	}, true, nil
}

// refererFor mirrors the caller's referer when forwarding is enabled and
// falls back to the configured static referer.
func (c *Client) refererFor(req domain.GeocodeRequest) string {
	if c.forwardReferer && req.Referer != "" {
		return req.Referer
	}
	return c.referer
}

// Nominatim API response types.

type place struct {
	Lat         coordinate `json:"lat"`
	Lon         coordinate `json:"lon"`
	DisplayName string     `json:"display_name"`
}

// coordinate accepts both JSON numbers and numeric strings ("51.5").
type coordinate struct {
	value float64
	valid bool
}

func (c *coordinate) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*c = coordinate{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	*c = coordinate{value: v, valid: true}
	return nil
}
