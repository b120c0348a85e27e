package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3}, []float64{4, 5, 6}, 32},
		{"Zero", []float64{0, 0, 0}, []float64{0, 0, 0}, 0},
		{"Mixed", []float64{1, -1, 2}, []float64{1, 1, -2}, -4},
		{"Empty", []float64{}, []float64{}, 0},
		{"Single", []float64{2}, []float64{3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dot(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestSquaredL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3}, []float64{4, 5, 6}, 27},
		{"Zero", []float64{0, 0, 0}, []float64{0, 0, 0}, 0},
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Mixed", []float64{1, -1}, []float64{-1, 1}, 8},
		{"Empty", []float64{}, []float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SquaredL2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestHaversine(t *testing.T) {
	t.Run("SamePoint", func(t *testing.T) {
		p := LatLng{Lat: 42.995268, Lng: -89.514444}
		assert.InDelta(t, 0, Haversine(p, p), 1e-9)
	})

	t.Run("OneDegreeLatitude", func(t *testing.T) {
		// One degree of latitude is ~111.2 km everywhere.
		d := Haversine(LatLng{Lat: 0, Lng: 0}, LatLng{Lat: 1, Lng: 0})
		assert.InDelta(t, 111195, d, 100)
	})

	t.Run("Symmetric", func(t *testing.T) {
		a := LatLng{Lat: 43.0731, Lng: -89.4012}
		b := LatLng{Lat: 42.995268, Lng: -89.514444}
		assert.InDelta(t, Haversine(a, b), Haversine(b, a), 1e-9)
	})
}

func TestLatLng(t *testing.T) {
	assert.True(t, LatLng{Lat: 43, Lng: -89}.Valid())
	assert.False(t, LatLng{Lat: 91, Lng: 0}.Valid())
	assert.False(t, LatLng{Lat: 0, Lng: -181}.Valid())
	assert.False(t, LatLng{Lat: math.NaN(), Lng: 0}.Valid())
	assert.False(t, LatLng{Lat: 0, Lng: math.Inf(1)}.Valid())
	assert.Equal(t, []float64{43, -89}, LatLng{Lat: 43, Lng: -89}.Vector())
}

func TestMetric(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "L2", MetricL2.String())
		assert.Equal(t, "Dot", MetricDot.String())
		assert.Equal(t, "Unknown(99)", Metric(99).String())
	})

	t.Run("Provider", func(t *testing.T) {
		f, err := Provider(MetricL2)
		require.NoError(t, err)
		assert.InDelta(t, 27, f([]float64{1, 2, 3}, []float64{4, 5, 6}), 1e-9)

		f, err = Provider(MetricDot)
		require.NoError(t, err)
		assert.NotNil(t, f)

		_, err = Provider(Metric(99))
		assert.Error(t, err)
	})
}
