package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/bpnn/routeplan/distance"
)

var (
	// ErrNotFound reports a definitive "no match" for an address.
	ErrNotFound = errors.New("geocode: address not found")
	// ErrEmptyAddress is returned for blank input.
	ErrEmptyAddress = errors.New("geocode: empty address")
)

// Result is the outcome of geocoding one address.
// A definitive failure has Found == false; it is cached like a success.
type Result struct {
	Address           string  `json:"address"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	NormalizedAddress string  `json:"normalized_address,omitempty"`
	Found             bool    `json:"found"`
	// Cached is set when the result was served from the cache.
	Cached bool `json:"-"`
}

// LatLng returns the coordinate of a found result.
func (r Result) LatLng() distance.LatLng {
	return distance.LatLng{Lat: r.Latitude, Lng: r.Longitude}
}

// Geocoder resolves free-text addresses to coordinates.
//
// Implementations return a Result with Found == false and a nil error when
// the upstream definitively has no match. Errors are reserved for transport
// or upstream failures, which callers may retry later.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Result, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, address string) (Result, error)

// Geocode calls f.
func (f GeocoderFunc) Geocode(ctx context.Context, address string) (Result, error) {
	return f(ctx, address)
}

// HTTPError is returned when the upstream answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("geocode: upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
