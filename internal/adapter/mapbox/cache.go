package mapbox

import (
	"context"
	"fmt"

	"github.com/couchcryptid/bird-detect-etl/internal/cache"
	"github.com/couchcryptid/bird-detect-etl/internal/domain"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache.
type CachedGeocoder struct {
	inner domain.Geocoder
	cache *cache.LRU[string, domain.Place]
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int) *CachedGeocoder {
	return &CachedGeocoder{
		inner: inner,
		cache: cache.NewLRU[string, domain.Place](maxEntries),
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Place, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	if place, ok := c.cache.Get(key); ok {
		return place, nil
	}
	place, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return place, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if place.FormattedAddress != "" {
		c.cache.Put(key, place)
	}
	return place, nil
}
