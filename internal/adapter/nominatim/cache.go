package nominatim

import (
	"context"
	"strings"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by address.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache[string, domain.GeocodeResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. The cache
// keeps at least one entry.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, domain.GeocodeResult](max(maxEntries, 1))
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache,
		metrics: metrics,
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, req domain.GeocodeRequest) (domain.GeocodeResult, bool) {
	key := strings.ToLower(req.Address)
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, true
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, ok := c.inner.Geocode(ctx, req)
	// Only cache matches so "not found" and failures can be retried.
	if ok {
		c.cache.Add(key, result)
	}
	return result, ok
}
