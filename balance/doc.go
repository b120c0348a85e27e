// Package balance partitions points into k groups of near-equal size.
//
// Group sizes are fixed up front: floor(n/k) each, with the remainder going
// one unit at a time to the lowest-indexed groups. The pipeline is
//
//  1. seed k centroids with unconstrained k-means (fixed seed),
//  2. build the n×k matrix of squared point-to-centroid distances,
//  3. expand every group into capacity-many slot columns,
//  4. solve the minimum-cost point-to-slot assignment exactly,
//  5. map slots back to groups and recompute each group's centroid.
//
// By default the assignment is solved once. WithRefinements enables extra
// rounds that re-seed from the balanced groups.
//
// # Usage
//
//	points := []balance.Point{
//	    {ID: "a", Coord: []float64{0, 0}},
//	    {ID: "b", Coord: []float64{0, 1}},
//	    {ID: "c", Coord: []float64{10, 10}},
//	    {ID: "d", Coord: []float64{10, 11}},
//	}
//	res, err := balance.Cluster(ctx, points, 2)
//	// res.Labels: a,b → 0; c,d → 1
package balance
