package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/bpnn/routeplan/distance"
)

var (
	// ErrInvalidK is returned when k is not in [1, n].
	ErrInvalidK = errors.New("kmeans: k must be in [1, n]")
	// ErrDimensionMismatch is returned when vectors differ in length.
	ErrDimensionMismatch = errors.New("kmeans: vectors must share one dimension")
)

// DefaultSeed matches the fixed random state the planner has always used.
const DefaultSeed = 42

// Options configures Train.
type Options struct {
	// Seed drives the initial centroid selection.
	Seed int64
	// MaxIterations caps the number of Lloyd iterations per run.
	// If <= 0, defaults to 300.
	MaxIterations int
	// Restarts is the number of independently seeded runs (seed, seed+1, ...).
	// The run with the lowest inertia wins; ties keep the earliest run.
	// If <= 0, defaults to 1.
	Restarts int
}

// DefaultOptions returns the options used by the balancer.
func DefaultOptions() Options {
	return Options{
		Seed:          DefaultSeed,
		MaxIterations: 300,
		Restarts:      1,
	}
}

// Model is the outcome of a training run.
type Model struct {
	Centroids   [][]float64
	Assignments []int
	Inertia     float64
	Iterations  int
}

// Train runs Lloyd's algorithm on vectors and returns k centroids.
//
// Initialization picks k distinct vectors from a seeded permutation, so the
// same input and seed always produce the same model.
func Train(ctx context.Context, vectors [][]float64, k int, opts Options) (*Model, error) {
	n := len(vectors)
	if k < 1 || k > n {
		return nil, ErrInvalidK
	}
	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, ErrDimensionMismatch
		}
	}

	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 300
	}
	if opts.Restarts <= 0 {
		opts.Restarts = 1
	}

	var best *Model
	for r := 0; r < opts.Restarts; r++ {
		m, err := train(ctx, vectors, k, dim, opts.Seed+int64(r), opts.MaxIterations)
		if err != nil {
			return nil, err
		}
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}

	return best, nil
}

func train(ctx context.Context, vectors [][]float64, k, dim int, seed int64, maxIter int) (*Model, error) {
	n := len(vectors)

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), vectors[perm[i]]...)
	}

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	counts := make([]int, k)
	sums := make([][]float64, k)
	for j := range sums {
		sums[j] = make([]float64, dim)
	}

	iter := 0
	for ; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Assignment step
		changed := false
		for i, vec := range vectors {
			best, _ := Nearest(vec, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		for j := range sums {
			clear(sums[j])
		}
		clear(counts)

		for i, vec := range vectors {
			c := assignments[i]
			for d := 0; d < dim; d++ {
				sums[c][d] += vec[d]
			}
			counts[c]++
		}

		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				continue
			}
			scale := 1.0 / float64(counts[j])
			for d := 0; d < dim; d++ {
				centroids[j][d] = sums[j][d] * scale
			}
		}

		// Empty clusters are handled after all means are final so the
		// recovery point does not depend on processing order.
		for j := 0; j < k; j++ {
			if counts[j] == 0 {
				p := farthestPoint(vectors, centroids, j)
				copy(centroids[j], vectors[p])
			}
		}
	}

	return &Model{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     Inertia(vectors, centroids),
		Iterations:  iter,
	}, nil
}

// farthestPoint returns the index of the vector whose distance to its nearest
// centroid other than skip is largest. Ties resolve to the lowest index.
func farthestPoint(vectors [][]float64, centroids [][]float64, skip int) int {
	best := 0
	bestDist := -1.0
	for i, vec := range vectors {
		minDist := math.Inf(1)
		for j, c := range centroids {
			if j == skip {
				continue
			}
			if d := distance.SquaredL2(vec, c); d < minDist {
				minDist = d
			}
		}
		if minDist > bestDist {
			bestDist = minDist
			best = i
		}
	}
	return best
}

// Nearest returns the index of the closest centroid and the squared distance
// to it. Ties resolve to the lowest centroid index.
func Nearest(vec []float64, centroids [][]float64) (int, float64) {
	best := -1
	minDist := math.Inf(1)
	for j, c := range centroids {
		d := distance.SquaredL2(vec, c)
		if d < minDist || best < 0 {
			minDist = d
			best = j
		}
	}
	return best, minDist
}

// Inertia is the sum of squared distances from each vector to its nearest centroid.
func Inertia(vectors [][]float64, centroids [][]float64) float64 {
	var total float64
	for _, vec := range vectors {
		_, d := Nearest(vec, centroids)
		total += d
	}
	return total
}
