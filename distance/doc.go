// Package distance provides vector and geographic distance calculations.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default, used by clustering)
//   - MetricDot: Dot product (inner product)
//
// Haversine is provided separately for great-circle distances between
// LatLng coordinates, used when routes are sequenced offline.
//
// # Usage
//
//	d := distance.SquaredL2(a, b)
//	meters := distance.Haversine(depot, stop)
package distance
