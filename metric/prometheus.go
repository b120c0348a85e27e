package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "routeplan"

// Prometheus records planner metrics as Prometheus collectors.
// It satisfies routeplan.MetricsCollector.
type Prometheus struct {
	geocodeTotal   *prometheus.CounterVec
	geocodeLatency prometheus.Histogram
	clusterTotal   *prometheus.CounterVec
	clusterLatency prometheus.Histogram
	clusterPoints  prometheus.Histogram
	routeTotal     *prometheus.CounterVec
	routeLatency   prometheus.Histogram
	planTotal      *prometheus.CounterVec
	planLatency    prometheus.Histogram
	planExcluded   prometheus.Counter
	planAddresses  prometheus.Counter
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{
		geocodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Address lookups by outcome (found, not_found, error) and source (cache, upstream)",
		}, []string{"outcome", "source"}),
		geocodeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "Latency of single address lookups",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
		}),
		clusterTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_runs_total",
			Help:      "Balanced clustering runs by status",
		}, []string{"status"}),
		clusterLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_duration_seconds",
			Help:      "Latency of balanced clustering runs",
			Buckets:   prometheus.DefBuckets,
		}),
		clusterPoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_points",
			Help:      "Number of points per clustering run",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
		}),
		routeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "Per-group routing calls by status",
		}, []string{"status"}),
		routeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_duration_seconds",
			Help:      "Latency of per-group routing calls",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		planTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Plans by status",
		}, []string{"status"}),
		planLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_duration_seconds",
			Help:      "End-to-end latency of plans",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		planExcluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_excluded_addresses_total",
			Help:      "Addresses excluded from plans because they could not be geocoded",
		}),
		planAddresses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_addresses_total",
			Help:      "Addresses submitted for planning",
		}),
	}

	for _, c := range []prometheus.Collector{
		p.geocodeTotal, p.geocodeLatency,
		p.clusterTotal, p.clusterLatency, p.clusterPoints,
		p.routeTotal, p.routeLatency,
		p.planTotal, p.planLatency, p.planExcluded, p.planAddresses,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordGeocode records one address lookup.
func (p *Prometheus) RecordGeocode(duration time.Duration, cached, found bool, err error) {
	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
	case !found:
		outcome = "not_found"
	}
	source := "upstream"
	if cached {
		source = "cache"
	}
	p.geocodeTotal.WithLabelValues(outcome, source).Inc()
	p.geocodeLatency.Observe(duration.Seconds())
}

// RecordCluster records one clustering run.
func (p *Prometheus) RecordCluster(n, k int, duration time.Duration, err error) {
	p.clusterTotal.WithLabelValues(status(err)).Inc()
	p.clusterLatency.Observe(duration.Seconds())
	p.clusterPoints.Observe(float64(n))
}

// RecordRoute records one routing call.
func (p *Prometheus) RecordRoute(stops int, duration time.Duration, err error) {
	p.routeTotal.WithLabelValues(status(err)).Inc()
	p.routeLatency.Observe(duration.Seconds())
}

// RecordPlan records one plan.
func (p *Prometheus) RecordPlan(addresses, excluded int, duration time.Duration, err error) {
	p.planTotal.WithLabelValues(status(err)).Inc()
	p.planLatency.Observe(duration.Seconds())
	p.planAddresses.Add(float64(addresses))
	p.planExcluded.Add(float64(excluded))
}
