package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bpnn/routeplan/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlimited() *resource.Controller {
	return resource.NewController(resource.Config{Name: "test", Breaker: resource.BreakerConfig{Disabled: true}}, nil)
}

func TestNominatim_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "1200 E Verona Ave Verona WI", r.URL.Query().Get("q"))
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"42.995268","lon":"-89.514444","display_name":"1200, East Verona Avenue, Verona, Wisconsin"}]`))
	}))
	defer srv.Close()

	g := NewNominatim(WithBaseURL(srv.URL+"/"), WithController(unlimited()))
	r, err := g.Geocode(context.Background(), "1200 E Verona Ave Verona WI")
	require.NoError(t, err)

	assert.True(t, r.Found)
	assert.InDelta(t, 42.995268, r.Latitude, 1e-9)
	assert.InDelta(t, -89.514444, r.Longitude, 1e-9)
	assert.Equal(t, "1200, East Verona Avenue, Verona, Wisconsin", r.NormalizedAddress)
	assert.Equal(t, "1200 E Verona Ave Verona WI", r.Address)
}

func TestNominatim_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	g := NewNominatim(WithBaseURL(srv.URL), WithController(unlimited()))
	r, err := g.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, r.Found)
	assert.Equal(t, "nowhere at all", r.Address)
}

func TestNominatim_Errors(t *testing.T) {
	t.Run("HTTPStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		g := NewNominatim(WithBaseURL(srv.URL), WithController(unlimited()))
		_, err := g.Geocode(context.Background(), "a")

		var he *HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusTooManyRequests, he.StatusCode)
		assert.True(t, he.Temporary())
	})

	t.Run("BadJSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		defer srv.Close()

		g := NewNominatim(WithBaseURL(srv.URL), WithController(unlimited()))
		_, err := g.Geocode(context.Background(), "a")
		assert.Error(t, err)
	})

	t.Run("BadCoordinate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"1"}]`))
		}))
		defer srv.Close()

		g := NewNominatim(WithBaseURL(srv.URL), WithController(unlimited()))
		_, err := g.Geocode(context.Background(), "a")
		assert.Error(t, err)
	})

	t.Run("EmptyAddress", func(t *testing.T) {
		g := NewNominatim(WithBaseURL("http://127.0.0.1:0"), WithController(unlimited()))
		_, err := g.Geocode(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyAddress)
	})

	t.Run("Timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		g := NewNominatim(WithBaseURL(srv.URL), WithController(unlimited()), WithTimeout(20*time.Millisecond))
		_, err := g.Geocode(context.Background(), "a")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNominatim_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rc := resource.NewController(resource.Config{
		Name:    "nominatim",
		Breaker: resource.BreakerConfig{MaxRequests: 1, Timeout: time.Hour, FailureThreshold: 0.5, MinRequests: 2},
	}, nil)
	g := NewNominatim(WithBaseURL(srv.URL), WithController(rc))

	for i := 0; i < 2; i++ {
		_, err := g.Geocode(context.Background(), "a")
		require.Error(t, err)
	}
	_, err := g.Geocode(context.Background(), "a")
	assert.ErrorIs(t, err, resource.ErrUnavailable)
	assert.Equal(t, int32(2), hits.Load())
}
