package kmeans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrain(t *testing.T) {
	ctx := context.Background()
	// 2 clusters: (0,0) and (10,10)
	vecs := [][]float64{
		{0, 0}, {0, 1}, {1, 0}, // near 0,0
		{10, 10}, {10, 11}, {11, 10}, // near 10,10
	}

	m, err := Train(ctx, vecs, 2, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, m.Centroids, 2)

	p1, _ := Nearest([]float64{0.5, 0.5}, m.Centroids)
	p2, _ := Nearest([]float64{10.5, 10.5}, m.Centroids)
	assert.NotEqual(t, p1, p2)

	// Points of one blob share a label.
	assert.Equal(t, m.Assignments[0], m.Assignments[1])
	assert.Equal(t, m.Assignments[0], m.Assignments[2])
	assert.Equal(t, m.Assignments[3], m.Assignments[4])
	assert.NotEqual(t, m.Assignments[0], m.Assignments[3])
	assert.InDelta(t, 4.0/3.0*2, m.Inertia, 1e-9)
}

func TestTrain_SingleClusterIsMean(t *testing.T) {
	vecs := [][]float64{{0, 0}, {2, 0}, {4, 6}}
	m, err := Train(context.Background(), vecs, 1, DefaultOptions())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 2}, m.Centroids[0], 1e-9)
}

func TestTrain_Deterministic(t *testing.T) {
	vecs := make([][]float64, 50)
	for i := range vecs {
		vecs[i] = []float64{float64(i % 7), float64((i * 13) % 11)}
	}

	a, err := Train(context.Background(), vecs, 4, DefaultOptions())
	require.NoError(t, err)
	b, err := Train(context.Background(), vecs, 4, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, a.Centroids, b.Centroids)
	assert.Equal(t, a.Assignments, b.Assignments)
}

func TestTrain_DuplicatePointsRecoverEmptyCluster(t *testing.T) {
	// Three identical points plus one outlier: any seed that picks two
	// identical points leaves a cluster empty on the first pass.
	vecs := [][]float64{{1, 1}, {1, 1}, {1, 1}, {9, 9}}
	opts := DefaultOptions()
	for seed := int64(0); seed < 10; seed++ {
		opts.Seed = seed
		m, err := Train(context.Background(), vecs, 2, opts)
		require.NoError(t, err)
		assert.Equal(t, m.Assignments[0], m.Assignments[1])
		assert.NotEqual(t, m.Assignments[0], m.Assignments[3])
	}
}

func TestTrain_Restarts(t *testing.T) {
	vecs := [][]float64{{0, 0}, {0, 1}, {5, 5}, {5, 6}, {10, 0}, {10, 1}}
	single, err := Train(context.Background(), vecs, 3, DefaultOptions())
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Restarts = 5
	multi, err := Train(context.Background(), vecs, 3, opts)
	require.NoError(t, err)

	assert.LessOrEqual(t, multi.Inertia, single.Inertia)
}

func TestTrain_InvalidK(t *testing.T) {
	ctx := context.Background()
	vecs := [][]float64{{0, 0}, {1, 1}}

	_, err := Train(ctx, vecs, 0, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(ctx, vecs, 3, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Train(ctx, nil, 1, DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestTrain_DimensionMismatch(t *testing.T) {
	_, err := Train(context.Background(), [][]float64{{0, 0}, {1}}, 1, DefaultOptions())
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestTrain_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	vecs := make([][]float64, 1000)
	for i := range vecs {
		vecs[i] = []float64{float64(i), float64(i * 2)}
	}

	_, err := Train(ctx, vecs, 10, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNearest(t *testing.T) {
	centroids := [][]float64{
		{0, 0},   // 0
		{10, 10}, // 1
		{20, 20}, // 2
	}

	idx, d := Nearest([]float64{1, 1}, centroids)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 2, d, 1e-9)

	idx, _ = Nearest([]float64{19, 19}, centroids)
	assert.Equal(t, 2, idx)

	// Equidistant: lowest index wins.
	idx, _ = Nearest([]float64{5, 5}, centroids)
	assert.Equal(t, 0, idx)
}
