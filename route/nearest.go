package route

import (
	"context"

	"github.com/bpnn/routeplan/distance"
	gojson "github.com/goccy/go-json"
)

// DefaultSpeedKmh is the average speed NearestNeighbor assumes for durations.
const DefaultSpeedKmh = 40.0

// improvementEps is the smallest gain (in meters) a 2-opt move must yield.
const improvementEps = 1e-9

type nearestOptions struct {
	speedKmh    float64
	twoOpt      bool
	maxPasses   int
	skipGeoJSON bool
}

// NearestOption configures a NearestNeighbor optimizer.
type NearestOption func(*nearestOptions)

// WithSpeed sets the assumed average speed in km/h.
func WithSpeed(kmh float64) NearestOption {
	return func(o *nearestOptions) {
		if kmh > 0 {
			o.speedKmh = kmh
		}
	}
}

// WithTwoOpt toggles 2-opt improvement of the initial tour. Enabled by default.
func WithTwoOpt(enabled bool) NearestOption {
	return func(o *nearestOptions) {
		o.twoOpt = enabled
	}
}

// WithMaxPasses caps the number of 2-opt improvement passes. Zero means
// until no improving move remains.
func WithMaxPasses(n int) NearestOption {
	return func(o *nearestOptions) {
		o.maxPasses = n
	}
}

// WithoutGeometry skips building the GeoJSON geometry.
func WithoutGeometry() NearestOption {
	return func(o *nearestOptions) {
		o.skipGeoJSON = true
	}
}

// NearestNeighbor is an offline Optimizer over great-circle distances.
//
// The tour is built greedily from the depot, always moving to the closest
// unvisited stop (ties go to the lower index), then improved by
// first-improvement 2-opt. The result is deterministic.
type NearestNeighbor struct {
	opts nearestOptions
}

// NewNearestNeighbor creates an offline optimizer.
func NewNearestNeighbor(optFns ...NearestOption) *NearestNeighbor {
	o := nearestOptions{
		speedKmh: DefaultSpeedKmh,
		twoOpt:   true,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return &NearestNeighbor{opts: o}
}

// Trip solves a round trip from depot through every stop.
func (nn *NearestNeighbor) Trip(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error) {
	if err := validateStops(depot, stops); err != nil {
		return nil, err
	}

	points := make([]distance.LatLng, 0, len(stops)+1)
	points = append(points, depot)
	points = append(points, stops...)
	n := len(points)

	w := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := distance.Haversine(points[i], points[j])
			w[i*n+j] = d
			w[j*n+i] = d
		}
	}
	at := func(u, v int) float64 { return w[u*n+v] }

	tour := nearestTour(n, at)
	if nn.opts.twoOpt {
		if err := twoOpt(ctx, tour, at, nn.opts.maxPasses); err != nil {
			return nil, err
		}
	}

	visit := tour[:n]
	order := make([]int, n)
	for pos, wp := range visit {
		order[wp] = pos
	}

	speed := nn.opts.speedKmh * 1000 / 3600
	trip := &Trip{
		WaypointOrder: order,
		VisitOrder:    append([]int(nil), visit...),
		Legs:          make([]Leg, n),
	}
	for p := 0; p < n; p++ {
		d := at(tour[p], tour[p+1])
		trip.Legs[p] = Leg{DistanceMeters: d, DurationSeconds: d / speed}
		trip.DistanceMeters += d
	}
	trip.DurationSeconds = trip.DistanceMeters / speed

	if !nn.opts.skipGeoJSON {
		geom, err := lineString(points, tour)
		if err != nil {
			return nil, err
		}
		trip.Geometry = geom
	}
	return trip, nil
}

// nearestTour returns a closed tour (tour[0] == tour[n] == 0).
func nearestTour(n int, at func(u, v int) float64) []int {
	tour := make([]int, 0, n+1)
	visited := make([]bool, n)
	cur := 0
	visited[0] = true
	tour = append(tour, 0)

	for len(tour) < n {
		next := -1
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if next < 0 || at(cur, j) < at(cur, next) {
				next = j
			}
		}
		visited[next] = true
		tour = append(tour, next)
		cur = next
	}
	return append(tour, 0)
}

// twoOpt improves a closed symmetric tour in place by reversing segments
// [i..k] while that shortens it. Position 0 (the depot) never moves.
func twoOpt(ctx context.Context, tour []int, at func(u, v int) float64, maxPasses int) error {
	n := len(tour) - 1
	if n < 4 {
		return nil
	}

	for pass := 0; maxPasses <= 0 || pass < maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		improved := false
		for i := 1; i <= n-2; i++ {
			for k := i + 1; k <= n-1; k++ {
				a, b := tour[i-1], tour[i]
				c, d := tour[k], tour[k+1]
				delta := at(a, c) + at(b, d) - at(a, b) - at(c, d)
				if delta < -improvementEps {
					reverse(tour, i, k)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return nil
}

func reverse(tour []int, i, k int) {
	for i < k {
		tour[i], tour[k] = tour[k], tour[i]
		i++
		k--
	}
}

type geoJSONLine struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

func lineString(points []distance.LatLng, tour []int) ([]byte, error) {
	g := geoJSONLine{Type: "LineString", Coordinates: make([][2]float64, len(tour))}
	for i, wp := range tour {
		g.Coordinates[i] = [2]float64{points[wp].Lng, points[wp].Lat}
	}
	return gojson.Marshal(g)
}
