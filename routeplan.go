package routeplan

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/bpnn/routeplan/balance"
	"github.com/bpnn/routeplan/distance"
	"github.com/bpnn/routeplan/geocode"
	"github.com/bpnn/routeplan/route"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Stop is one geocoded delivery address.
type Stop struct {
	// Index is the position of the address in the Plan input.
	Index             int             `json:"index"`
	Address           string          `json:"address"`
	NormalizedAddress string          `json:"normalized_address,omitempty"`
	Location          distance.LatLng `json:"location"`
}

// PlanGroup is one delivery group: a balanced cluster and its route.
type PlanGroup struct {
	Index    int             `json:"index"`
	Centroid distance.LatLng `json:"centroid"`
	// Stops lists the members in input order.
	Stops []Stop `json:"stops"`
	// Trip is nil when routing is disabled or failed.
	Trip      *route.Trip           `json:"trip,omitempty"`
	Itinerary []route.ItineraryStop `json:"itinerary,omitempty"`
	// RouteError describes a routing failure. The group is still valid.
	RouteError string `json:"route_error,omitempty"`
}

// Routed reports whether the group has a route.
func (g *PlanGroup) Routed() bool { return g.Trip != nil }

// Summary aggregates a plan.
type Summary struct {
	Groups          int     `json:"groups"`
	Routed          int     `json:"routed"`
	Stops           int     `json:"stops"`
	Excluded        int     `json:"excluded"`
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Plan is the outcome of Planner.Plan.
type Plan struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	K         int         `json:"k"`
	Depot     route.Place `json:"depot"`
	Groups    []PlanGroup `json:"groups"`
	// Excluded lists addresses that could not be geocoded.
	Excluded []geocode.Failure `json:"excluded"`
	// Inertia is the total squared distance of stops to their group centroid.
	Inertia float64 `json:"inertia"`
	Summary Summary `json:"summary"`
}

// ElbowResult is the outcome of Planner.Elbow.
type ElbowResult struct {
	// Inertia[i] is the unconstrained k-means inertia for k = i+1.
	Inertia  []float64         `json:"inertia"`
	Points   int               `json:"points"`
	Excluded []geocode.Failure `json:"excluded"`
}

// Planner turns a list of delivery addresses into balanced, routed groups.
//
// A Planner is safe for concurrent use if its geocoder and router are.
type Planner struct {
	geocoder         geocode.Geocoder
	router           route.Optimizer
	depot            route.Place
	logger           *Logger
	metrics          MetricsCollector
	clusterOptions   []balance.Option
	routeConcurrency int
	geocodeLimit     int
}

// New creates a Planner.
func New(optFns ...Option) (*Planner, error) {
	o := options{
		routing:          true,
		depot:            DefaultDepot(),
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		routeConcurrency: DefaultRouteConcurrency,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	if !o.depot.Location.Valid() {
		return nil, fmt.Errorf("routeplan: invalid depot coordinate %v", o.depot.Location)
	}
	if o.geocodeLimit < 0 {
		return nil, fmt.Errorf("routeplan: negative geocode limit %d", o.geocodeLimit)
	}

	if o.geocoder == nil {
		nominatim := geocode.NewNominatim(geocode.WithLogger(o.logger.Logger))
		o.geocoder = geocode.NewCachingGeocoder(nominatim, geocode.NewCache(nil, ""), o.logger.Logger)
	}
	if !o.routing {
		o.router = nil
	} else if o.router == nil {
		o.router = route.NewOSRM(route.WithLogger(o.logger.Logger))
	}

	clusterOptions := []balance.Option{
		balance.WithRestarts(DefaultRestarts),
		balance.WithLogger(o.logger.Logger),
	}

	return &Planner{
		geocoder:         o.geocoder,
		router:           o.router,
		depot:            o.depot,
		logger:           o.logger,
		metrics:          o.metricsCollector,
		clusterOptions:   append(clusterOptions, o.clusterOptions...),
		routeConcurrency: o.routeConcurrency,
		geocodeLimit:     o.geocodeLimit,
	}, nil
}

// Depot returns the depot routes start and end at.
func (p *Planner) Depot() route.Place { return p.depot }

// Plan geocodes addresses, partitions the found ones into k balanced groups
// and routes every group from the depot.
//
// Addresses that cannot be geocoded are reported in Plan.Excluded. A group
// whose routing fails keeps its stops and reports the failure in RouteError.
// Only invalid k, an empty geocoding result, clustering defects and context
// cancellation fail the call.
func (p *Planner) Plan(ctx context.Context, addresses []string, k int) (plan *Plan, err error) {
	start := time.Now()
	excluded := 0
	defer func() {
		p.metrics.RecordPlan(len(addresses), excluded, time.Since(start), err)
	}()

	if k < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidClusterCount, k)
	}

	id := uuid.NewString()
	log := p.logger.WithPlanID(id).WithK(k)

	stops, failures, err := p.geocode(ctx, log, addresses)
	if err != nil {
		return nil, err
	}
	excluded = len(failures)
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: %d addresses", ErrNoLocations, len(addresses))
	}

	res, err := p.cluster(ctx, log, stops, k)
	if err != nil {
		return nil, err
	}

	plan = &Plan{
		ID:        id,
		CreatedAt: start.UTC(),
		K:         k,
		Depot:     p.depot,
		Groups:    make([]PlanGroup, len(res.Groups)),
		Excluded:  failures,
		Inertia:   res.Inertia,
	}
	for c, g := range res.Groups {
		pg := PlanGroup{
			Index:    c,
			Centroid: distance.LatLng{Lat: g.Centroid[0], Lng: g.Centroid[1]},
			Stops:    make([]Stop, 0, g.Size()),
		}
		it := g.Members.Iterator()
		for it.HasNext() {
			pg.Stops = append(pg.Stops, stops[it.Next()])
		}
		plan.Groups[c] = pg
	}

	if p.router != nil {
		if err := p.route(ctx, log, plan.Groups); err != nil {
			return nil, err
		}
	}

	plan.Summary = summarize(plan)
	log.LogPlan(ctx, id, len(plan.Groups), plan.Summary.Stops, excluded, time.Since(start))
	return plan, nil
}

// Elbow geocodes addresses and returns the k-means inertia for k = 1..maxK.
func (p *Planner) Elbow(ctx context.Context, addresses []string, maxK int) (*ElbowResult, error) {
	stops, failures, err := p.geocode(ctx, p.logger, addresses)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: %d addresses", ErrNoLocations, len(addresses))
	}

	inertia, err := balance.Elbow(ctx, points(stops), maxK, p.clusterOptions...)
	if err != nil {
		return nil, translateError(err)
	}
	return &ElbowResult{Inertia: inertia, Points: len(stops), Excluded: failures}, nil
}

func (p *Planner) geocode(ctx context.Context, log *Logger, addresses []string) ([]Stop, []geocode.Failure, error) {
	start := time.Now()
	timed := geocode.GeocoderFunc(func(ctx context.Context, address string) (geocode.Result, error) {
		t := time.Now()
		r, err := p.geocoder.Geocode(ctx, address)
		p.metrics.RecordGeocode(time.Since(t), r.Cached, r.Found, err)
		return r, err
	})

	batch, err := geocode.Batch(ctx, timed, addresses,
		geocode.WithLimit(p.geocodeLimit),
		geocode.WithBatchLogger(log.Logger),
	)
	if err != nil {
		return nil, nil, err
	}

	stops := make([]Stop, len(batch.Found))
	for i, r := range batch.Found {
		stops[i] = Stop{
			Index:             batch.Indices[i],
			Address:           r.Address,
			NormalizedAddress: r.NormalizedAddress,
			Location:          r.LatLng(),
		}
	}
	failures := batch.Failures
	if failures == nil {
		failures = []geocode.Failure{}
	}

	log.LogGeocodeBatch(ctx, len(stops)+len(failures), len(stops), time.Since(start))
	return stops, failures, nil
}

func (p *Planner) cluster(ctx context.Context, log *Logger, stops []Stop, k int) (*balance.Result, error) {
	start := time.Now()
	res, err := balance.Cluster(ctx, points(stops), k, p.clusterOptions...)
	p.metrics.RecordCluster(len(stops), k, time.Since(start), err)
	if err != nil {
		log.LogCluster(ctx, len(stops), k, 0, err)
		return nil, translateError(err)
	}
	log.LogCluster(ctx, len(stops), k, res.Inertia, nil)
	return res, nil
}

// route sequences every group concurrently. Groups never share points.
func (p *Planner) route(ctx context.Context, log *Logger, groups []PlanGroup) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.routeConcurrency)

	for i := range groups {
		group := &groups[i]
		g.Go(func() error {
			locs := make([]distance.LatLng, len(group.Stops))
			places := make([]route.Place, len(group.Stops))
			for j, s := range group.Stops {
				locs[j] = s.Location
				places[j] = route.Place{Address: s.Address, Location: s.Location}
			}

			start := time.Now()
			trip, err := p.router.Trip(gctx, p.depot.Location, locs)
			if err == nil {
				group.Itinerary, err = route.Itinerary(p.depot, places, trip)
			}
			p.metrics.RecordRoute(len(locs), time.Since(start), err)

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					if ctx.Err() != nil {
						return ctx.Err()
					}
				}
				log.LogRoute(gctx, group.Index, len(locs), 0, err)
				group.Itinerary = nil
				group.RouteError = err.Error()
				return nil
			}

			group.Trip = trip
			log.LogRoute(gctx, group.Index, len(locs), trip.DistanceKm(), nil)
			return nil
		})
	}
	return g.Wait()
}

func points(stops []Stop) []balance.Point {
	out := make([]balance.Point, len(stops))
	for i, s := range stops {
		// Row indices keep repeated addresses distinct.
		out[i] = balance.Point{ID: strconv.Itoa(s.Index), Coord: s.Location.Vector()}
	}
	return out
}

func summarize(plan *Plan) Summary {
	s := Summary{
		Groups:   len(plan.Groups),
		Excluded: len(plan.Excluded),
	}
	for i := range plan.Groups {
		g := &plan.Groups[i]
		s.Stops += len(g.Stops)
		if g.Trip == nil {
			continue
		}
		s.Routed++
		s.DistanceKm += g.Trip.DistanceKm()
		s.DurationMinutes += g.Trip.DurationMinutes()
	}
	s.DistanceKm = round2(s.DistanceKm)
	s.DurationMinutes = round2(s.DurationMinutes)
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
