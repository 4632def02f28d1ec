package nominatim

import (
	"context"
	"testing"

	"github.com/couchcryptid/crm-trigger-service/internal/domain"
	"github.com/couchcryptid/crm-trigger-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodeResult
	ok     bool
}

func (m *countingGeocoder) Geocode(_ context.Context, _ domain.GeocodeRequest) (domain.GeocodeResult, bool) {
	m.calls++
	return m.result, m.ok
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodeResult{Latitude: 51.5, Longitude: -0.13, DisplayName: "Downing Street"},
		ok:     true,
	}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, ok := cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "10 Downing St"})
	assert.True(t, ok)
	assert.InDelta(t, 51.5, r1.Latitude, 0)

	// Referer and case do not split the cache.
	r2, ok := cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "10 DOWNING ST", Referer: "https://crm.example.com"})
	assert.True(t, ok)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_MissesAreNotCached(t *testing.T) {
	inner := &countingGeocoder{ok: false}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, ok := cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "Nowhere"})
	assert.False(t, ok)
	_, ok = cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "Nowhere"})
	assert.False(t, ok)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 0, cached.cache.Len())
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodeResult{Latitude: 1}, ok: true}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "1 Main St"})
	cached.Geocode(context.Background(), domain.GeocodeRequest{Address: "2 Main St"})

	assert.Equal(t, 2, inner.calls)
}

// --- eviction ---

type addressGeocoder struct {
	calls map[string]int
}

func (m *addressGeocoder) Geocode(_ context.Context, req domain.GeocodeRequest) (domain.GeocodeResult, bool) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[req.Address]++
	return domain.GeocodeResult{DisplayName: req.Address}, true
}

func geocode(c *CachedGeocoder, address string) domain.GeocodeResult {
	r, _ := c.Geocode(context.Background(), domain.GeocodeRequest{Address: address})
	return r
}

func TestCachedGeocoder_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &addressGeocoder{}
	cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())

	geocode(cached, "a")
	geocode(cached, "b")
	geocode(cached, "a") // "b" is now least recently used
	geocode(cached, "c") // evicts "b"

	assert.Equal(t, "a", geocode(cached, "a").DisplayName)
	assert.Equal(t, "b", geocode(cached, "b").DisplayName)

	assert.Equal(t, 1, inner.calls["a"])
	assert.Equal(t, 2, inner.calls["b"])
	assert.Equal(t, 1, inner.calls["c"])
	assert.Equal(t, 2, cached.cache.Len())
}

func TestCachedGeocoder_ZeroCapacityKeepsOne(t *testing.T) {
	inner := &addressGeocoder{}
	cached := NewCachedGeocoder(inner, 0, observability.NewMetricsForTesting())

	geocode(cached, "a")
	geocode(cached, "b")
	geocode(cached, "b")

	assert.Equal(t, 1, cached.cache.Len())
	assert.Equal(t, 1, inner.calls["b"])
}
