package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bpnn/routeplan/distance"
	"github.com/bpnn/routeplan/internal/resource"
	gojson "github.com/goccy/go-json"
)

const (
	// DefaultOSRMURL is the public OSRM demo server.
	DefaultOSRMURL = "http://router.project-osrm.org"
	// DefaultProfile is the OSRM routing profile.
	DefaultProfile = "driving"
	// DefaultOSRMTimeout bounds a single trip request.
	DefaultOSRMTimeout = 30 * time.Second
)

// APIError is returned when OSRM rejects a request or answers with a code
// other than "Ok".
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("route: osrm %s (HTTP %d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("route: osrm %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type osrmOptions struct {
	baseURL    string
	profile    string
	timeout    time.Duration
	httpClient *http.Client
	controller *resource.Controller
	logger     *slog.Logger
}

// OSRMOption configures an OSRM client.
type OSRMOption func(*osrmOptions)

// WithBaseURL sets the OSRM server URL.
func WithBaseURL(u string) OSRMOption {
	return func(o *osrmOptions) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithProfile sets the routing profile (driving, cycling, foot).
func WithProfile(p string) OSRMOption {
	return func(o *osrmOptions) {
		o.profile = p
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) OSRMOption {
	return func(o *osrmOptions) {
		o.timeout = d
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) OSRMOption {
	return func(o *osrmOptions) {
		o.httpClient = c
	}
}

// WithController sets the rate limiter and circuit breaker guarding calls.
func WithController(c *resource.Controller) OSRMOption {
	return func(o *osrmOptions) {
		o.controller = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OSRMOption {
	return func(o *osrmOptions) {
		o.logger = l
	}
}

// OSRM solves round trips with the OSRM Trip service.
type OSRM struct {
	baseURL    string
	profile    string
	timeout    time.Duration
	client     *http.Client
	controller *resource.Controller
	logger     *slog.Logger
}

// NewOSRM creates an OSRM client. Unless overridden, calls are limited to one
// per second and guarded by a circuit breaker that ignores client errors.
func NewOSRM(optFns ...OSRMOption) *OSRM {
	o := osrmOptions{
		baseURL: DefaultOSRMURL,
		profile: DefaultProfile,
		timeout: DefaultOSRMTimeout,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.controller == nil {
		o.controller = resource.NewController(resource.Config{
			Name:              "osrm",
			RequestsPerSecond: 1,
			Breaker:           resource.DefaultBreakerConfig(),
			IsSuccessful:      IsClientError,
		}, o.logger)
	}

	return &OSRM{
		baseURL:    o.baseURL,
		profile:    o.profile,
		timeout:    o.timeout,
		client:     o.httpClient,
		controller: o.controller,
		logger:     o.logger,
	}
}

// IsClientError reports whether err is an OSRM rejection of the request
// itself, which says nothing about the health of the server.
func IsClientError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && !ae.Temporary()
}

type osrmLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type osrmTrip struct {
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
	Legs     []osrmLeg       `json:"legs"`
	Geometry json.RawMessage `json:"geometry"`
}

type osrmWaypoint struct {
	WaypointIndex int `json:"waypoint_index"`
	TripsIndex    int `json:"trips_index"`
}

type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Trips     []osrmTrip     `json:"trips"`
	Waypoints []osrmWaypoint `json:"waypoints"`
}

// Trip requests a round trip that starts at depot and visits every stop.
func (c *OSRM) Trip(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error) {
	if err := validateStops(depot, stops); err != nil {
		return nil, err
	}

	var resp *osrmResponse
	err := c.controller.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.request(ctx, depot, stops)
		return err
	})
	if err != nil {
		return nil, err
	}

	trip, err := tripFromResponse(resp, len(stops)+1)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "osrm trip solved",
		"stops", len(stops),
		"distance_m", trip.DistanceMeters,
		"duration_s", trip.DurationSeconds,
	)
	return trip, nil
}

func (c *OSRM) request(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*osrmResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var coords strings.Builder
	writeCoord(&coords, depot)
	for _, s := range stops {
		coords.WriteByte(';')
		writeCoord(&coords, s)
	}

	q := url.Values{}
	q.Set("source", "first")
	q.Set("roundtrip", "true")
	q.Set("geometries", "geojson")
	u := c.baseURL + "/trip/v1/" + url.PathEscape(c.profile) + "/" + coords.String() + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("route: request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("route: read response: %w", err)
	}

	var resp osrmResponse
	decodeErr := gojson.Unmarshal(body, &resp)

	if httpResp.StatusCode != http.StatusOK {
		ae := &APIError{StatusCode: httpResp.StatusCode, Code: resp.Code, Message: resp.Message}
		if decodeErr != nil || ae.Code == "" {
			ae.Code = http.StatusText(httpResp.StatusCode)
			ae.Message = strings.TrimSpace(string(body[:min(len(body), 512)]))
		}
		return nil, ae
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("route: decode response: %w", decodeErr)
	}
	if resp.Code != "Ok" {
		return nil, &APIError{StatusCode: httpResp.StatusCode, Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}

func tripFromResponse(resp *osrmResponse, waypoints int) (*Trip, error) {
	if len(resp.Trips) != 1 {
		return nil, fmt.Errorf("%w: expected 1 trip, got %d", ErrInvalidTrip, len(resp.Trips))
	}
	if len(resp.Waypoints) != waypoints {
		return nil, fmt.Errorf("%w: expected %d waypoints, got %d", ErrInvalidTrip, waypoints, len(resp.Waypoints))
	}

	order := make([]int, waypoints)
	for j, wp := range resp.Waypoints {
		order[j] = wp.WaypointIndex
	}
	visit, err := invert(order)
	if err != nil {
		return nil, err
	}

	t := resp.Trips[0]
	legs := make([]Leg, len(t.Legs))
	for i, l := range t.Legs {
		legs[i] = Leg{DistanceMeters: l.Distance, DurationSeconds: l.Duration}
	}

	return &Trip{
		DistanceMeters:  t.Distance,
		DurationSeconds: t.Duration,
		WaypointOrder:   order,
		VisitOrder:      visit,
		Legs:            legs,
		Geometry:        t.Geometry,
	}, nil
}

// writeCoord writes p as "lng,lat", the order OSRM expects.
func writeCoord(b *strings.Builder, p distance.LatLng) {
	b.WriteString(strconv.FormatFloat(p.Lng, 'f', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(p.Lat, 'f', -1, 64))
}
