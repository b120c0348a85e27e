package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when the circuit breaker rejects a call.
var ErrUnavailable = errors.New("resource: upstream unavailable")

// BreakerConfig configures the circuit breaker.
type BreakerConfig struct {
	// Disabled turns the breaker off.
	Disabled bool
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval is the cyclic period after which closed-state counts reset.
	Interval time.Duration
	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration
	// FailureThreshold is the failure ratio that trips the breaker.
	FailureThreshold float64
	// MinRequests is the number of calls needed before the ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns the breaker settings used for upstream APIs.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Config holds the limits for one upstream.
type Config struct {
	// Name identifies the upstream in logs and breaker state.
	Name string

	// RequestsPerSecond is the sustained call rate. If 0, unlimited.
	RequestsPerSecond float64

	// Burst is the token bucket size. If 0, defaults to 1.
	Burst int

	// MaxInFlight is the maximum number of concurrent calls. If 0, defaults to 1.
	MaxInFlight int64

	Breaker BreakerConfig

	// IsSuccessful reports whether an error should count as a success for
	// the breaker (e.g. a definitive "not found"). Context cancellation is
	// never counted as a failure.
	IsSuccessful func(err error) bool
}

// Controller guards calls to one upstream with a token bucket rate limiter,
// a concurrency semaphore and a circuit breaker.
//
// A nil *Controller runs calls directly.
type Controller struct {
	cfg     Config
	limiter *rate.Limiter
	sem     *semaphore.Weighted
	cb      *gobreaker.CircuitBreaker
}

// NewController creates a new resource controller. A nil logger discards
// breaker state changes.
func NewController(cfg Config, logger *slog.Logger) *Controller {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Controller{
		cfg: cfg,
		sem: semaphore.NewWeighted(cfg.MaxInFlight),
	}

	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	if !cfg.Breaker.Disabled {
		bc := cfg.Breaker
		c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: bc.MaxRequests,
			Interval:    bc.Interval,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < bc.MinRequests {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= bc.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					"upstream", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
			IsSuccessful: c.isSuccessful,
		})
	}

	return c
}

func (c *Controller) isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if c.cfg.IsSuccessful != nil {
		return c.cfg.IsSuccessful(err)
	}
	return false
}

// Do waits for a rate token and a concurrency slot, then runs fn through the
// circuit breaker. The error of fn is returned unchanged.
func (c *Controller) Do(ctx context.Context, fn func(context.Context) error) error {
	if c == nil {
		return fn(ctx)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	if c.cb == nil {
		return fn(ctx)
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, c.cfg.Name, err)
	}
	return err
}

// State returns the breaker state ("closed", "half-open", "open"), or
// "disabled" without a breaker.
func (c *Controller) State() string {
	if c == nil || c.cb == nil {
		return "disabled"
	}
	return c.cb.State().String()
}

// Name returns the upstream name.
func (c *Controller) Name() string {
	if c == nil {
		return ""
	}
	return c.cfg.Name
}
