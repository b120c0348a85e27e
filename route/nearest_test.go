package route

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/bpnn/routeplan/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNeighbor_Trip(t *testing.T) {
	home := distance.LatLng{Lat: 43, Lng: -89.5}
	line := []distance.LatLng{
		{Lat: 43, Lng: -89.2},
		{Lat: 43, Lng: -89.4},
		{Lat: 43, Lng: -89.3},
	}

	trip, err := NewNearestNeighbor(WithSpeed(36)).Trip(context.Background(), home, line)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 3, 1}, trip.VisitOrder)
	assert.Equal(t, []int{0, 3, 1, 2}, trip.WaypointOrder)
	require.Len(t, trip.Legs, 4)

	var sum float64
	for _, l := range trip.Legs {
		sum += l.DistanceMeters
		assert.InDelta(t, l.DistanceMeters/10, l.DurationSeconds, 1e-9)
	}
	assert.InDelta(t, sum, trip.DistanceMeters, 1e-6)
	assert.InDelta(t, trip.DistanceMeters/10, trip.DurationSeconds, 1e-6)
	assert.InDelta(t, distance.Haversine(home, line[0]), trip.Legs[3].DistanceMeters, 1e-6)

	var geom struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(trip.Geometry, &geom))
	assert.Equal(t, "LineString", geom.Type)
	require.Len(t, geom.Coordinates, 5)
	assert.Equal(t, [2]float64{-89.5, 43}, geom.Coordinates[0])
	assert.Equal(t, geom.Coordinates[0], geom.Coordinates[4])
}

func TestNearestNeighbor_SingleStop(t *testing.T) {
	a := distance.LatLng{Lat: 43, Lng: -89.5}
	b := distance.LatLng{Lat: 43.1, Lng: -89.5}

	trip, err := NewNearestNeighbor(WithoutGeometry()).Trip(context.Background(), a, []distance.LatLng{b})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, trip.VisitOrder)
	require.Len(t, trip.Legs, 2)
	assert.Equal(t, trip.Legs[0], trip.Legs[1])
	assert.Nil(t, trip.Geometry)
}

func TestNearestNeighbor_Deterministic(t *testing.T) {
	stops := make([]distance.LatLng, 25)
	for i := range stops {
		f := float64(i)
		stops[i] = distance.LatLng{Lat: 43 + 0.3*math.Sin(f*1.7), Lng: -89.5 + 0.3*math.Cos(f*2.3)}
	}

	nn := NewNearestNeighbor()
	first, err := nn.Trip(context.Background(), depot, stops)
	require.NoError(t, err)
	second, err := nn.Trip(context.Background(), depot, stops)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	plain, err := NewNearestNeighbor(WithTwoOpt(false)).Trip(context.Background(), depot, stops)
	require.NoError(t, err)
	assert.LessOrEqual(t, first.DistanceMeters, plain.DistanceMeters+1e-6)

	// Every waypoint is visited exactly once.
	_, err = invert(first.WaypointOrder)
	assert.NoError(t, err)
}

func TestNearestNeighbor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewNearestNeighbor().Trip(ctx, depot, append(stops, stops...))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTwoOpt_RemovesCrossing(t *testing.T) {
	// Unit square; the tour 0→2→1→3→0 crosses itself.
	pts := [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	at := func(u, v int) float64 {
		return math.Hypot(pts[u][0]-pts[v][0], pts[u][1]-pts[v][1])
	}

	tour := []int{0, 2, 1, 3, 0}
	require.NoError(t, twoOpt(context.Background(), tour, at, 0))

	var cost float64
	for i := 0; i < len(tour)-1; i++ {
		cost += at(tour[i], tour[i+1])
	}
	assert.InDelta(t, 4.0, cost, 1e-12)
	assert.Equal(t, 0, tour[0])
	assert.Equal(t, 0, tour[4])
}

func TestFallback(t *testing.T) {
	down := OptimizerFunc(func(context.Context, distance.LatLng, []distance.LatLng) (*Trip, error) {
		return nil, &APIError{StatusCode: 503, Code: "Service Unavailable"}
	})
	f := &Fallback{Primary: down, Secondary: NewNearestNeighbor()}

	trip, err := f.Trip(context.Background(), depot, stops)
	require.NoError(t, err)
	assert.Len(t, trip.VisitOrder, len(stops)+1)

	_, err = f.Trip(context.Background(), depot, nil)
	assert.ErrorIs(t, err, ErrNoStops)

	broken := &Fallback{
		Primary: down,
		Secondary: OptimizerFunc(func(context.Context, distance.LatLng, []distance.LatLng) (*Trip, error) {
			return nil, errors.New("also down")
		}),
	}
	_, err = broken.Trip(context.Background(), depot, stops)
	assert.EqualError(t, err, "also down")
}
