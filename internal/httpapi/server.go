package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/deliverer"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultAllowedOrigin is the frontend dev server origin.
	DefaultAllowedOrigin = "http://localhost:5173"

	// DefaultMaxUploadBytes caps the size of uploaded spreadsheets.
	DefaultMaxUploadBytes = 32 << 20
)

// Planner is the planning capability the API serves.
type Planner interface {
	Plan(ctx context.Context, addresses []string, k int) (*routeplan.Plan, error)
	Elbow(ctx context.Context, addresses []string, maxK int) (*routeplan.ElbowResult, error)
}

var _ Planner = (*routeplan.Planner)(nil)

// Config configures a Server.
type Config struct {
	Planner Planner

	// Deliverers enables the deliverer endpoints and plan assignment. Optional.
	Deliverers deliverer.Store

	// AllowedOrigins for CORS. If empty, DefaultAllowedOrigin.
	AllowedOrigins []string

	// MaxUploadBytes caps request bodies. If 0, DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// Gatherer backs GET /metrics. If nil, prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger receives request logs. If nil, logging is disabled.
	Logger *slog.Logger
}

// Server serves the planning API.
type Server struct {
	planner    Planner
	deliverers deliverer.Store
	origins    []string
	maxUpload  int64
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	s := &Server{
		planner:    cfg.Planner,
		deliverers: cfg.Deliverers,
		origins:    cfg.AllowedOrigins,
		maxUpload:  cfg.MaxUploadBytes,
		gatherer:   cfg.Gatherer,
		logger:     cfg.Logger,
	}
	if len(s.origins) == 0 {
		s.origins = []string{DefaultAllowedOrigin}
	}
	if s.maxUpload <= 0 {
		s.maxUpload = DefaultMaxUploadBytes
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Post("/upload-spreadsheet", s.uploadSpreadsheet)
	r.Post("/plans", s.createPlan)
	r.Post("/elbow", s.elbow)

	if s.deliverers != nil {
		r.Route("/deliverers", func(r chi.Router) {
			r.Get("/", s.listDeliverers)
			r.Get("/{id}/locations", s.delivererLocations)
		})
	}
	return r
}
