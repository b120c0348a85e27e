package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/bpnn/routeplan/internal/resource"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies the planner to Nominatim.
	DefaultUserAgent = "BNNP_Flags"
	// DefaultTimeout bounds one geocoding request.
	DefaultTimeout = 10 * time.Second
)

type nominatimOptions struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	controller *resource.Controller
	logger     *slog.Logger
}

// NominatimOption configures a Nominatim client.
type NominatimOption func(*nominatimOptions)

// WithBaseURL points the client at a different Nominatim instance.
func WithBaseURL(u string) NominatimOption {
	return func(o *nominatimOptions) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the User-Agent header. Nominatim requires one.
func WithUserAgent(ua string) NominatimOption {
	return func(o *nominatimOptions) {
		o.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) NominatimOption {
	return func(o *nominatimOptions) {
		o.timeout = d
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) NominatimOption {
	return func(o *nominatimOptions) {
		o.httpClient = c
	}
}

// WithController replaces the default rate limiter and circuit breaker.
func WithController(c *resource.Controller) NominatimOption {
	return func(o *nominatimOptions) {
		o.controller = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) NominatimOption {
	return func(o *nominatimOptions) {
		o.logger = l
	}
}

// Nominatim geocodes addresses with the OpenStreetMap Nominatim search API.
// Calls are limited to one request per second and pass through a circuit
// breaker so a failing upstream is not hammered.
type Nominatim struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	client     *http.Client
	controller *resource.Controller
	logger     *slog.Logger
}

// NewNominatim creates a Nominatim client.
func NewNominatim(optFns ...NominatimOption) *Nominatim {
	o := nominatimOptions{
		baseURL:   DefaultNominatimURL,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
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
			Name:              "nominatim",
			RequestsPerSecond: 1,
			Breaker:           resource.DefaultBreakerConfig(),
		}, o.logger)
	}

	return &Nominatim{
		baseURL:    o.baseURL,
		userAgent:  o.userAgent,
		timeout:    o.timeout,
		client:     o.httpClient,
		controller: o.controller,
		logger:     o.logger,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves one address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (Result, error) {
	if strings.TrimSpace(address) == "" {
		return Result{}, ErrEmptyAddress
	}

	var places []nominatimPlace
	err := n.controller.Do(ctx, func(ctx context.Context) error {
		var err error
		places, err = n.search(ctx, address)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	if len(places) == 0 {
		n.logger.DebugContext(ctx, "address not found", "address", address)
		return Result{Address: address}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: bad latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return Result{}, fmt.Errorf("geocode: bad longitude %q: %w", p.Lon, err)
	}

	n.logger.DebugContext(ctx, "address found", "address", address, "lat", lat, "lng", lng)
	return Result{
		Address:           address,
		Latitude:          lat,
		Longitude:         lng,
		NormalizedAddress: p.DisplayName,
		Found:             true,
	}, nil
}

func (n *Nominatim) search(ctx context.Context, address string) ([]nominatimPlace, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var places []nominatimPlace
	if err := gojson.NewDecoder(resp.Body).Decode(&places); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}
	return places, nil
}
