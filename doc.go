// Package routeplan splits a day's delivery addresses into balanced groups
// and routes each group from the depot.
//
// # Quick Start
//
//	planner, _ := routeplan.New()
//	plan, err := planner.Plan(ctx, addresses, 5)
//	if err != nil {
//	    // errors.Is(err, routeplan.ErrInvalidClusterCount): pick a smaller k
//	}
//	for _, g := range plan.Groups {
//	    fmt.Println(g.Index, len(g.Stops), g.Trip.DistanceKm())
//	}
//
// # Pipeline
//
// Plan runs three stages:
//
//  1. geocode every address (cached, rate limited); failures are excluded
//     and reported, they never fail the plan,
//  2. partition the found locations into k groups whose sizes differ by at
//     most one (package balance),
//  3. order each group into a round trip from the depot (package route).
//
// Groups are routed concurrently and never share stops. A routing failure is
// recorded on its group.
//
// # Choosing k
//
// Elbow returns the k-means inertia for k = 1..maxK over the same geocoded
// locations, so callers can look for the bend in the curve.
//
// # Observability
//
// WithLogger and WithMetricsCollector plug in structured logging and metrics.
// See the metric package for a Prometheus collector.
package routeplan
