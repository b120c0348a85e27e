package balance

import (
	"log/slog"
	"runtime"

	"github.com/bpnn/routeplan/internal/kmeans"
)

type options struct {
	kmeans      kmeans.Options
	refinements int
	parallelism int
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		kmeans:      kmeans.DefaultOptions(),
		refinements: 0,
		parallelism: runtime.GOMAXPROCS(0),
		logger:      slog.New(slog.DiscardHandler),
	}
}

// Option configures Cluster and Elbow.
type Option func(*options)

// WithSeed sets the seed for the initial centroid selection.
// Identical input and seed always produce identical output.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.kmeans.Seed = seed
	}
}

// WithMaxIterations caps the Lloyd iterations of the seeding pass.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.kmeans.MaxIterations = n
	}
}

// WithRestarts runs the seeding pass n times with consecutive seeds and keeps
// the lowest-inertia centroids.
func WithRestarts(n int) Option {
	return func(o *options) {
		o.kmeans.Restarts = n
	}
}

// WithRefinements enables up to n extra rounds of
// {recompute centroids from the balanced groups; solve the balanced
// assignment again}. Rounds stop early once the labels no longer change.
//
// The default is 0: exactly one balanced assignment after seeding.
func WithRefinements(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.refinements = n
	}
}

// WithParallelism bounds the goroutines used to build the cost matrix.
// Results do not depend on this value.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.parallelism = n
	}
}

// WithLogger sets the logger used to report invariant violations.
// Pass nil to disable logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.logger = logger
	}
}
