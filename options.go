package routeplan

import (
	"github.com/bpnn/routeplan/balance"
	"github.com/bpnn/routeplan/distance"
	"github.com/bpnn/routeplan/geocode"
	"github.com/bpnn/routeplan/route"
)

// Default depot: the warehouse every route starts and ends at.
const (
	DefaultDepotAddress = "1200 E Verona Ave Verona WI"
	DefaultDepotLat     = 42.995268
	DefaultDepotLng     = -89.514444
)

// DefaultRouteConcurrency is the number of groups routed at once.
const DefaultRouteConcurrency = 2

// DefaultRestarts is the number of k-means seedings tried per clustering.
const DefaultRestarts = 10

// DefaultDepot returns the default depot.
func DefaultDepot() route.Place {
	return route.Place{
		Address:  DefaultDepotAddress,
		Location: distance.LatLng{Lat: DefaultDepotLat, Lng: DefaultDepotLng},
	}
}

type options struct {
	geocoder         geocode.Geocoder
	router           route.Optimizer
	routing          bool
	depot            route.Place
	logger           *Logger
	metricsCollector MetricsCollector
	clusterOptions   []balance.Option
	routeConcurrency int
	geocodeLimit     int
}

// Option configures a Planner.
type Option func(*options)

// WithGeocoder sets the geocoder.
//
// If not set, a Nominatim client behind an in-memory cache is used.
func WithGeocoder(g geocode.Geocoder) Option {
	return func(o *options) {
		o.geocoder = g
	}
}

// WithRouter sets the route optimizer.
//
// If not set, the public OSRM Trip service is used.
func WithRouter(r route.Optimizer) Option {
	return func(o *options) {
		o.router = r
	}
}

// WithoutRouting disables route sequencing. Plans then only carry groups.
func WithoutRouting() Option {
	return func(o *options) {
		o.routing = false
	}
}

// WithDepot sets the start and end point of every route.
func WithDepot(depot route.Place) Option {
	return func(o *options) {
		o.depot = depot
	}
}

// WithLogger sets the logger. If nil, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil, metrics are disabled.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithClusterOptions appends options passed to balance.Cluster and
// balance.Elbow. They are applied after the planner defaults.
func WithClusterOptions(opts ...balance.Option) Option {
	return func(o *options) {
		o.clusterOptions = append(o.clusterOptions, opts...)
	}
}

// WithRouteConcurrency sets how many groups are routed concurrently.
func WithRouteConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.routeConcurrency = n
		}
	}
}

// WithGeocodeLimit stops geocoding after n addresses were found.
// Zero means unlimited.
func WithGeocodeLimit(n int) Option {
	return func(o *options) {
		o.geocodeLimit = n
	}
}
