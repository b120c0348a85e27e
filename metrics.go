package routeplan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus; see the metric package for a ready-made implementation.
type MetricsCollector interface {
	// RecordGeocode is called after each address lookup.
	// cached reports a cache hit, found a resolved address, err a transport
	// or upstream failure.
	RecordGeocode(duration time.Duration, cached, found bool, err error)

	// RecordCluster is called after each balanced clustering run over n
	// points into k groups.
	RecordCluster(n, k int, duration time.Duration, err error)

	// RecordRoute is called after each per-group routing call.
	RecordRoute(stops int, duration time.Duration, err error)

	// RecordPlan is called after each Plan call. addresses is the input
	// size, excluded the number of addresses that could not be geocoded.
	RecordPlan(addresses, excluded int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGeocode(time.Duration, bool, bool, error) {}
func (NoopMetricsCollector) RecordCluster(int, int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordRoute(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordPlan(int, int, time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GeocodeCount      atomic.Int64
	GeocodeCacheHits  atomic.Int64
	GeocodeNotFound   atomic.Int64
	GeocodeErrors     atomic.Int64
	ClusterCount      atomic.Int64
	ClusterErrors     atomic.Int64
	ClusterPoints     atomic.Int64
	ClusterTotalNanos atomic.Int64
	RouteCount        atomic.Int64
	RouteErrors       atomic.Int64
	RouteStops        atomic.Int64
	RouteTotalNanos   atomic.Int64
	PlanCount         atomic.Int64
	PlanErrors        atomic.Int64
	PlanAddresses     atomic.Int64
	PlanExcluded      atomic.Int64
}

// RecordGeocode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGeocode(duration time.Duration, cached, found bool, err error) {
	b.GeocodeCount.Add(1)
	switch {
	case err != nil:
		b.GeocodeErrors.Add(1)
	case !found:
		b.GeocodeNotFound.Add(1)
	}
	if cached {
		b.GeocodeCacheHits.Add(1)
	}
}

// RecordCluster implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCluster(n, k int, duration time.Duration, err error) {
	b.ClusterCount.Add(1)
	b.ClusterPoints.Add(int64(n))
	b.ClusterTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ClusterErrors.Add(1)
	}
}

// RecordRoute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRoute(stops int, duration time.Duration, err error) {
	b.RouteCount.Add(1)
	b.RouteStops.Add(int64(stops))
	b.RouteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RouteErrors.Add(1)
	}
}

// RecordPlan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPlan(addresses, excluded int, duration time.Duration, err error) {
	b.PlanCount.Add(1)
	b.PlanAddresses.Add(int64(addresses))
	b.PlanExcluded.Add(int64(excluded))
	if err != nil {
		b.PlanErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GeocodeCount:     b.GeocodeCount.Load(),
		GeocodeCacheHits: b.GeocodeCacheHits.Load(),
		GeocodeNotFound:  b.GeocodeNotFound.Load(),
		GeocodeErrors:    b.GeocodeErrors.Load(),
		ClusterCount:     b.ClusterCount.Load(),
		ClusterErrors:    b.ClusterErrors.Load(),
		ClusterAvgNanos:  avg(b.ClusterTotalNanos.Load(), b.ClusterCount.Load()),
		RouteCount:       b.RouteCount.Load(),
		RouteErrors:      b.RouteErrors.Load(),
		RouteAvgNanos:    avg(b.RouteTotalNanos.Load(), b.RouteCount.Load()),
		PlanCount:        b.PlanCount.Load(),
		PlanErrors:       b.PlanErrors.Load(),
		PlanAddresses:    b.PlanAddresses.Load(),
		PlanExcluded:     b.PlanExcluded.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GeocodeCount     int64
	GeocodeCacheHits int64
	GeocodeNotFound  int64
	GeocodeErrors    int64
	ClusterCount     int64
	ClusterErrors    int64
	ClusterAvgNanos  int64
	RouteCount       int64
	RouteErrors      int64
	RouteAvgNanos    int64
	PlanCount        int64
	PlanErrors       int64
	PlanAddresses    int64
	PlanExcluded     int64
}
