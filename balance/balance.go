package balance

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bpnn/routeplan/internal/assign"
	"github.com/bpnn/routeplan/internal/kmeans"
)

// Point is an identified coordinate vector.
type Point struct {
	// ID identifies the point in Result.Labels. If empty, the decimal input
	// index is used.
	ID    string
	Coord []float64
}

// Group is one balanced cluster.
type Group struct {
	Index    int
	Capacity int
	Centroid []float64
	// IDs lists member ids in input order.
	IDs []string
	// Members holds the input indices of the members.
	Members *roaring.Bitmap
}

// Size returns the number of members.
func (g Group) Size() int { return len(g.IDs) }

// Result is the outcome of Cluster.
type Result struct {
	// Labels maps every point id to its group index.
	Labels map[string]int
	// Assignments holds the group index of each point in input order.
	Assignments []int
	// Centroids holds the mean of each group's members.
	Centroids [][]float64
	// Seeds holds the centroids the balanced assignment was solved against.
	Seeds [][]float64
	// Capacities holds the exact size of each group.
	Capacities []int
	Groups     []Group
	// AssignmentCost is the optimal total squared distance to Seeds.
	AssignmentCost float64
	// Inertia is the total squared distance to the final Centroids.
	Inertia float64
	// Refinements is the number of refinement rounds that were run.
	Refinements int
}

// Cluster partitions points into k groups whose sizes differ by at most one,
// minimizing the total squared distance of points to their group centroid.
//
// Centroids are seeded with unconstrained k-means, then every point is matched
// to one capacity slot by an exact minimum-cost assignment. The call is pure:
// identical points, k and seed always yield identical results.
func Cluster(ctx context.Context, points []Point, k int, opts ...Option) (*Result, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	n := len(points)
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidClusterCount, k, n)
	}

	ids, vectors, err := prepare(points)
	if err != nil {
		return nil, err
	}
	dim := len(vectors[0])

	fail := func(op string, err error) error {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		ie := &InvariantError{Op: op, N: n, K: k, Dim: dim, Err: err}
		o.logger.ErrorContext(ctx, "balanced clustering invariant violated",
			"op", op,
			"n", n,
			"k", k,
			"dim", dim,
			"error", err,
		)
		return ie
	}

	model, err := kmeans.Train(ctx, vectors, k, o.kmeans)
	if err != nil {
		if errors.Is(err, kmeans.ErrInvalidK) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidClusterCount, err)
		}
		if errors.Is(err, kmeans.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
		}
		return nil, err
	}
	seeds := canonicalOrder(model.Centroids)

	caps, err := Capacities(n, k)
	if err != nil {
		return nil, err
	}
	table := NewSlotTable(caps)

	labels, cost, err := balancedAssign(ctx, vectors, seeds, table, o.parallelism)
	if err != nil {
		return nil, fail("assign", err)
	}

	rounds := 0
	for ; rounds < o.refinements; rounds++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := recomputeCentroids(vectors, labels, k)
		if err != nil {
			return nil, fail("refine", err)
		}
		nextLabels, nextCost, err := balancedAssign(ctx, vectors, next, table, o.parallelism)
		if err != nil {
			return nil, fail("refine", err)
		}
		seeds, cost = next, nextCost
		if slices.Equal(labels, nextLabels) {
			rounds++
			break
		}
		labels = nextLabels
	}

	centroids, err := recomputeCentroids(vectors, labels, k)
	if err != nil {
		return nil, fail("recompute", err)
	}

	res := &Result{
		Labels:         make(map[string]int, n),
		Assignments:    labels,
		Centroids:      centroids,
		Seeds:          seeds,
		Capacities:     caps,
		Groups:         make([]Group, k),
		AssignmentCost: cost,
		Inertia:        withinGroupCost(vectors, labels, centroids),
		Refinements:    rounds,
	}
	for c := range res.Groups {
		res.Groups[c] = Group{
			Index:    c,
			Capacity: caps[c],
			Centroid: centroids[c],
			IDs:      make([]string, 0, caps[c]),
			Members:  roaring.New(),
		}
	}
	for p, c := range labels {
		res.Labels[ids[p]] = c
		res.Groups[c].IDs = append(res.Groups[c].IDs, ids[p])
		res.Groups[c].Members.Add(uint32(p))
	}

	return res, nil
}

// balancedAssign solves the capacity-constrained assignment of vectors to
// centroids and returns the labels and the optimal total cost.
func balancedAssign(ctx context.Context, vectors, centroids [][]float64, table SlotTable, parallelism int) ([]int, float64, error) {
	cost, err := costMatrix(ctx, vectors, centroids, parallelism)
	if err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	wide := expand(cost, table)
	rowToSlot, err := assign.Solve(wide)
	if err != nil {
		if errors.Is(err, assign.ErrInvalidCostMatrix) {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidCostMatrix, err)
		}
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidAssignment, err)
	}

	labels, err := resolve(rowToSlot, table)
	if err != nil {
		return nil, 0, err
	}
	return labels, assign.Cost(wide, rowToSlot), nil
}

// prepare validates points and returns their ids and cloned coordinates.
func prepare(points []Point) ([]string, [][]float64, error) {
	dim := len(points[0].Coord)
	if dim == 0 {
		return nil, nil, fmt.Errorf("%w: empty coordinate", ErrDimensionMismatch)
	}

	ids := make([]string, len(points))
	vectors := make([][]float64, len(points))
	seen := make(map[string]struct{}, len(points))
	for i, p := range points {
		if len(p.Coord) != dim {
			return nil, nil, fmt.Errorf("%w: point %d has dimension %d, want %d", ErrDimensionMismatch, i, len(p.Coord), dim)
		}
		id := p.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		if _, dup := seen[id]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		ids[i] = id
		vectors[i] = slices.Clone(p.Coord)
	}
	return ids, vectors, nil
}

// canonicalOrder sorts centroids lexicographically by coordinate so group
// indices do not depend on the order the seeding pass happened to produce.
func canonicalOrder(centroids [][]float64) [][]float64 {
	out := slices.Clone(centroids)
	slices.SortStableFunc(out, func(a, b []float64) int {
		for d := range a {
			if c := cmp.Compare(a[d], b[d]); c != 0 {
				return c
			}
		}
		return 0
	})
	return out
}
