package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGeocoder struct {
	calls   map[string]int
	results map[string]Result
	errs    map[string]error
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		calls:   map[string]int{},
		results: map[string]Result{},
		errs:    map[string]error{},
	}
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (Result, error) {
	f.calls[address]++
	if err, ok := f.errs[address]; ok {
		return Result{}, err
	}
	if r, ok := f.results[address]; ok {
		return r, nil
	}
	return Result{Address: address}, nil
}

func TestCachingGeocoder(t *testing.T) {
	ctx := context.Background()
	inner := newFakeGeocoder()
	inner.results["home"] = Result{Address: "home", Latitude: 43, Longitude: -89.5, Found: true}
	inner.errs["flaky"] = errors.New("connection reset")

	g := NewCachingGeocoder(inner, NewCache(nil, ""), nil)

	// Success is cached.
	r, err := g.Geocode(ctx, "home")
	require.NoError(t, err)
	assert.True(t, r.Found)
	assert.False(t, r.Cached)

	r, err = g.Geocode(ctx, "home")
	require.NoError(t, err)
	assert.True(t, r.Cached)
	assert.Equal(t, 1, inner.calls["home"])

	// Definitive failure is cached and never retried.
	for i := 0; i < 3; i++ {
		r, err = g.Geocode(ctx, "nowhere")
		require.NoError(t, err)
		assert.False(t, r.Found)
	}
	assert.Equal(t, 1, inner.calls["nowhere"])

	// Transport errors are not cached.
	for i := 0; i < 2; i++ {
		_, err = g.Geocode(ctx, "flaky")
		assert.Error(t, err)
	}
	assert.Equal(t, 2, inner.calls["flaky"])
	_, ok := g.Cache().Get("flaky")
	assert.False(t, ok)
}

func TestBatch(t *testing.T) {
	ctx := context.Background()
	inner := newFakeGeocoder()
	inner.results["a"] = Result{Address: "a", Latitude: 1, Longitude: 1, Found: true}
	inner.results["c"] = Result{Address: "c", Latitude: 3, Longitude: 3, Found: true}
	inner.results["bad"] = Result{Address: "bad", Latitude: 300, Longitude: 3, Found: true}
	inner.errs["down"] = errors.New("503")

	var observed int
	res, err := Batch(ctx, inner, []string{"a", "b", "down", "c", "bad"}, WithObserver(func(Result, error) { observed++ }))
	require.NoError(t, err)

	assert.Equal(t, 5, observed)
	require.Len(t, res.Found, 2)
	assert.Equal(t, "a", res.Found[0].Address)
	assert.Equal(t, "c", res.Found[1].Address)
	assert.Equal(t, []int{0, 3}, res.Indices)

	require.Len(t, res.Failures, 3)
	assert.Equal(t, Failure{Index: 1, Address: "b", Reason: ErrNotFound.Error()}, res.Failures[0])
	assert.Equal(t, "down", res.Failures[1].Address)
	assert.Error(t, res.Failures[1].Err)
	assert.Equal(t, "bad", res.Failures[2].Address)
}

func TestBatch_Limit(t *testing.T) {
	inner := newFakeGeocoder()
	for _, a := range []string{"a", "b", "c"} {
		inner.results[a] = Result{Address: a, Latitude: 1, Longitude: 1, Found: true}
	}

	res, err := Batch(context.Background(), inner, []string{"a", "b", "c"}, WithLimit(2))
	require.NoError(t, err)
	assert.Len(t, res.Found, 2)
	assert.Zero(t, inner.calls["c"])
}

func TestBatch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Batch(ctx, newFakeGeocoder(), []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}
