package assign

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCostMatrix is returned for empty, non-square or non-finite matrices.
var ErrInvalidCostMatrix = errors.New("assign: invalid cost matrix")

// ErrNoPerfectMatching is returned when the solver could not match every row.
// It indicates a solver bug; a finite square matrix always has a perfect matching.
var ErrNoPerfectMatching = errors.New("assign: no perfect matching")

// Solve returns rowToCol for the minimum-cost perfect matching of the
// square matrix cost, where rowToCol[i] is the column assigned to row i.
//
// It is the O(n³) Kuhn-Munkres algorithm with row/column potentials and
// shortest augmenting paths (Jonker-Volgenant formulation). Rows are added in
// index order and every comparison is strict, so among equal-cost candidates
// the lowest column index is preferred and the result is reproducible.
func Solve(cost [][]float64) ([]int, error) {
	n, err := validate(cost)
	if err != nil {
		return nil, err
	}

	// 1-indexed internally; column 0 is the virtual source of each augmenting path.
	inf := math.Inf(1)

	u := make([]float64, n+1) // Row potentials
	v := make([]float64, n+1) // Column potentials
	p := make([]int, n+1)     // p[j] = row assigned to column j
	way := make([]int, n+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= n; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			row := cost[i0-1]
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := row[j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				return nil, ErrNoPerfectMatching
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		// Augment along the path.
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowToCol := make([]int, n)
	for i := range rowToCol {
		rowToCol[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] < 1 || p[j] > n || rowToCol[p[j]-1] != -1 {
			return nil, ErrNoPerfectMatching
		}
		rowToCol[p[j]-1] = j - 1
	}

	return rowToCol, nil
}

// Cost returns the total cost of rowToCol on cost.
func Cost(cost [][]float64, rowToCol []int) float64 {
	var total float64
	for i, j := range rowToCol {
		total += cost[i][j]
	}
	return total
}

func validate(cost [][]float64) (int, error) {
	n := len(cost)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidCostMatrix)
	}
	for i, row := range cost {
		if len(row) != n {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidCostMatrix, i, len(row), n)
		}
		for j, c := range row {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return 0, fmt.Errorf("%w: non-finite value at (%d,%d)", ErrInvalidCostMatrix, i, j)
			}
		}
	}
	return n, nil
}
