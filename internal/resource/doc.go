// Package resource guards calls to external services.
//
// A Controller combines three limits for one upstream:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                        Controller                        │
//	├──────────────────┬──────────────────┬────────────────────┤
//	│  Rate limiter    │  In-flight cap   │  Circuit breaker   │
//	│  (token bucket)  │  (semaphore)     │  (gobreaker)       │
//	└──────────────────┴──────────────────┴────────────────────┘
//
// Nominatim's usage policy allows one request per second, so the geocoder
// uses
//
//	rc := resource.NewController(resource.Config{
//	    Name:              "nominatim",
//	    RequestsPerSecond: 1,
//	    Breaker:           resource.DefaultBreakerConfig(),
//	}, logger)
//
//	err := rc.Do(ctx, func(ctx context.Context) error {
//	    return fetch(ctx)
//	})
//
// Once the breaker opens, Do fails fast with ErrUnavailable until the
// breaker timeout elapses.
//
// All methods are safe for concurrent use and a nil *Controller is a no-op.
package resource
