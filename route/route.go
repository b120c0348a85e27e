package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/bpnn/routeplan/distance"
)

var (
	// ErrNoStops is returned when a trip is requested without stops.
	ErrNoStops = errors.New("route: no stops")
	// ErrInvalidTrip is returned when an optimizer answer is inconsistent
	// with the request (wrong waypoint count, not a permutation, ...).
	ErrInvalidTrip = errors.New("route: invalid trip")
)

// Leg is the path between two consecutive visits.
type Leg struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// DistanceKm returns the leg distance in kilometers rounded to 2 decimals.
func (l Leg) DistanceKm() float64 { return round2(l.DistanceMeters / 1000) }

// DurationMinutes returns the leg duration in minutes rounded to 2 decimals.
func (l Leg) DurationMinutes() float64 { return round2(l.DurationSeconds / 60) }

// Trip is a closed tour that starts and ends at the depot.
//
// Waypoints are numbered like the request: 0 is the depot and i (1..n) is
// stops[i-1].
type Trip struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	// WaypointOrder[j] is the position at which waypoint j is visited.
	WaypointOrder []int `json:"waypoint_order"`
	// VisitOrder[p] is the waypoint visited at position p. VisitOrder[0] is
	// always the depot.
	VisitOrder []int `json:"visit_order"`
	// Legs[p] runs from VisitOrder[p] to the next visit; the last leg returns
	// to the depot.
	Legs []Leg `json:"legs"`
	// Geometry is a GeoJSON LineString of the whole tour, if available.
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

// DistanceKm returns the total distance in kilometers rounded to 2 decimals.
func (t *Trip) DistanceKm() float64 { return round2(t.DistanceMeters / 1000) }

// DurationMinutes returns the total duration in minutes rounded to 2 decimals.
func (t *Trip) DurationMinutes() float64 { return round2(t.DurationSeconds / 60) }

// Optimizer orders stops into a round trip from the depot.
type Optimizer interface {
	Trip(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error)
}

// OptimizerFunc adapts a function to the Optimizer interface.
type OptimizerFunc func(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error)

// Trip calls f.
func (f OptimizerFunc) Trip(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error) {
	return f(ctx, depot, stops)
}

// invert turns a waypoint→position mapping into a position→waypoint mapping.
// The depot must come first.
func invert(order []int) ([]int, error) {
	n := len(order)
	out := make([]int, n)
	for i := range out {
		out[i] = -1
	}
	for wp, pos := range order {
		if pos < 0 || pos >= n || out[pos] != -1 {
			return nil, fmt.Errorf("%w: waypoint order %v is not a permutation", ErrInvalidTrip, order)
		}
		out[pos] = wp
	}
	if out[0] != 0 {
		return nil, fmt.Errorf("%w: trip does not start at the depot", ErrInvalidTrip)
	}
	return out, nil
}

func validateStops(depot distance.LatLng, stops []distance.LatLng) error {
	if len(stops) == 0 {
		return ErrNoStops
	}
	if !depot.Valid() {
		return fmt.Errorf("route: invalid depot coordinate %v", depot)
	}
	for i, s := range stops {
		if !s.Valid() {
			return fmt.Errorf("route: invalid coordinate %v for stop %d", s, i)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
