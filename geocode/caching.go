package geocode

import (
	"context"
	"log/slog"
)

// CachingGeocoder consults a Cache before calling the wrapped Geocoder.
//
// Fresh results, including definitive "not found" answers, are cached.
// Cached failures are returned as is and never retried. Errors from the
// wrapped Geocoder are not cached, so the next lookup tries again.
type CachingGeocoder struct {
	next   Geocoder
	cache  *Cache
	logger *slog.Logger
}

// NewCachingGeocoder wraps next with cache. A nil logger discards output.
func NewCachingGeocoder(next Geocoder, cache *Cache, logger *slog.Logger) *CachingGeocoder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachingGeocoder{next: next, cache: cache, logger: logger}
}

// Geocode returns the cached result for address or resolves and caches it.
func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (Result, error) {
	if r, ok := g.cache.Get(address); ok {
		g.logger.DebugContext(ctx, "geocode cache hit", "address", address, "found", r.Found)
		return r, nil
	}

	r, err := g.next.Geocode(ctx, address)
	if err != nil {
		return Result{}, err
	}
	r.Address = address
	g.cache.Put(r)
	return r, nil
}

// Cache returns the underlying cache.
func (g *CachingGeocoder) Cache() *Cache { return g.cache }
