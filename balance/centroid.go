package balance

import (
	"fmt"

	"github.com/bpnn/routeplan/distance"
)

// recomputeCentroids returns the mean of each cluster's members.
func recomputeCentroids(vectors [][]float64, labels []int, k int) ([][]float64, error) {
	dim := len(vectors[0])
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	for p, c := range labels {
		for d := 0; d < dim; d++ {
			sums[c][d] += vectors[p][d]
		}
		counts[c]++
	}

	for c := range sums {
		if counts[c] == 0 {
			return nil, fmt.Errorf("%w: cluster %d", ErrEmptyCluster, c)
		}
		scale := 1.0 / float64(counts[c])
		for d := range sums[c] {
			sums[c][d] *= scale
		}
	}
	return sums, nil
}

// withinGroupCost is the sum of squared distances from each point to the
// centroid of its group.
func withinGroupCost(vectors [][]float64, labels []int, centroids [][]float64) float64 {
	var total float64
	for p, c := range labels {
		total += distance.SquaredL2(vectors[p], centroids[c])
	}
	return total
}
