package assign

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_Known(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}

	rowToCol, err := Solve(cost)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 2}, rowToCol)
	assert.InDelta(t, 5, Cost(cost, rowToCol), 1e-9)
}

func TestSolve_Single(t *testing.T) {
	rowToCol, err := Solve([][]float64{{7}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, rowToCol)
}

func TestSolve_TiesAreIdentity(t *testing.T) {
	cost := make([][]float64, 4)
	for i := range cost {
		cost[i] = make([]float64, 4)
	}

	rowToCol, err := Solve(cost)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, rowToCol)
}

func TestSolve_DuplicateColumns(t *testing.T) {
	// Two clusters of capacity 2, expanded to four slot columns.
	base := [][]float64{
		{0, 100},
		{1, 81},
		{100, 0},
		{81, 1},
	}
	cost := make([][]float64, 4)
	for i, row := range base {
		cost[i] = []float64{row[0], row[0], row[1], row[1]}
	}

	rowToCol, err := Solve(cost)
	require.NoError(t, err)
	assert.InDelta(t, 2, Cost(cost, rowToCol), 1e-9)
	assert.Less(t, rowToCol[0], 2)
	assert.Less(t, rowToCol[1], 2)
	assert.GreaterOrEqual(t, rowToCol[2], 2)
	assert.GreaterOrEqual(t, rowToCol[3], 2)
}

func TestSolve_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(6)
		cost := make([][]float64, n)
		for i := range cost {
			cost[i] = make([]float64, n)
			for j := range cost[i] {
				// Small integer range produces plenty of ties.
				cost[i][j] = float64(rng.Intn(10))
			}
		}

		rowToCol, err := Solve(cost)
		require.NoError(t, err)
		assertPermutation(t, rowToCol)
		assert.InDelta(t, bruteForce(cost), Cost(cost, rowToCol), 1e-9, "trial %d", trial)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 12
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
		for j := range cost[i] {
			cost[i][j] = float64(rng.Intn(3))
		}
	}

	a, err := Solve(cost)
	require.NoError(t, err)
	b, err := Solve(cost)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cost [][]float64
	}{
		{"Empty", nil},
		{"NotSquare", [][]float64{{1, 2}}},
		{"Ragged", [][]float64{{1, 2}, {3}}},
		{"NaN", [][]float64{{1, math.NaN()}, {3, 4}}},
		{"Inf", [][]float64{{1, 2}, {math.Inf(1), 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(tt.cost)
			assert.ErrorIs(t, err, ErrInvalidCostMatrix)
		})
	}
}

func assertPermutation(t *testing.T, rowToCol []int) {
	t.Helper()
	seen := make([]bool, len(rowToCol))
	for _, j := range rowToCol {
		require.GreaterOrEqual(t, j, 0)
		require.Less(t, j, len(rowToCol))
		require.False(t, seen[j], "column %d assigned twice", j)
		seen[j] = true
	}
}

func bruteForce(cost [][]float64) float64 {
	n := len(cost)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	best := math.Inf(1)
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			if c := Cost(cost, perm); c < best {
				best = c
			}
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			rec(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	rec(0)
	return best
}
