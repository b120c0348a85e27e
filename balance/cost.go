package balance

import (
	"context"
	"fmt"
	"math"

	"github.com/bpnn/routeplan/distance"
	"golang.org/x/sync/errgroup"
)

// rowsPerTask keeps goroutine overhead small for the typical few hundred points.
const rowsPerTask = 64

// costMatrix returns the n×k matrix of squared distances from every vector to
// every centroid. Row blocks are computed concurrently; each task owns its
// rows exclusively, so the result equals a sequential computation.
func costMatrix(ctx context.Context, vectors, centroids [][]float64, parallelism int) ([][]float64, error) {
	cost := make([][]float64, len(vectors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for start := 0; start < len(vectors); start += rowsPerTask {
		end := min(start+rowsPerTask, len(vectors))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for p := start; p < end; p++ {
				row := make([]float64, len(centroids))
				for c, centroid := range centroids {
					d := distance.SquaredL2(vectors[p], centroid)
					if math.IsNaN(d) || math.IsInf(d, 0) {
						return fmt.Errorf("%w: non-finite cost for point %d, cluster %d", ErrInvalidCostMatrix, p, c)
					}
					row[c] = d
				}
				cost[p] = row
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cost, nil
}
