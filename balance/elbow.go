package balance

import (
	"context"
	"fmt"

	"github.com/bpnn/routeplan/internal/kmeans"
)

// DefaultElbowMaxK is the largest k Elbow evaluates when maxK <= 0.
const DefaultElbowMaxK = 10

// Inertia returns the total squared distance from each point to the centroid
// of the group it is labelled with.
func Inertia(points []Point, labels []int, centroids [][]float64) float64 {
	vectors := make([][]float64, len(points))
	for i, p := range points {
		vectors[i] = p.Coord
	}
	return withinGroupCost(vectors, labels, centroids)
}

// Elbow returns the unconstrained k-means inertia for k = 1..maxK (capped at
// the number of points). Entry i holds the inertia for k = i+1. Plotting the
// curve and picking the bend is a common way to choose k.
func Elbow(ctx context.Context, points []Point, maxK int, opts ...Option) ([]float64, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points", ErrInvalidClusterCount)
	}
	if maxK <= 0 {
		maxK = DefaultElbowMaxK
	}
	maxK = min(maxK, len(points))

	_, vectors, err := prepare(points)
	if err != nil {
		return nil, err
	}

	inertia := make([]float64, 0, maxK)
	for k := 1; k <= maxK; k++ {
		m, err := kmeans.Train(ctx, vectors, k, o.kmeans)
		if err != nil {
			return nil, err
		}
		inertia = append(inertia, m.Inertia)
	}
	return inertia, nil
}
