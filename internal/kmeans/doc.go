// Package kmeans implements unconstrained k-means (Lloyd's algorithm).
//
// Used by the balancer to seed centroids before the capacity-constrained
// assignment, and by the elbow helper to measure inertia per k.
package kmeans
