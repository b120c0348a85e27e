package geocode

import (
	"context"
	"errors"
	"log/slog"
)

// Failure describes an address excluded from a batch.
type Failure struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	Reason  string `json:"reason"`
	// Err is the underlying error, nil for a definitive "not found".
	Err error `json:"-"`
}

// BatchResult holds the outcome of Batch.
type BatchResult struct {
	// Found holds resolved addresses in input order.
	Found []Result
	// Indices maps Found[i] to its position in the input.
	Indices []int
	// Failures holds excluded addresses in input order.
	Failures []Failure
}

type batchOptions struct {
	limit  int
	logger *slog.Logger
	onDone func(Result, error)
}

// BatchOption configures Batch.
type BatchOption func(*batchOptions)

// WithLimit stops after n found addresses. Zero means unlimited.
func WithLimit(n int) BatchOption {
	return func(o *batchOptions) {
		o.limit = n
	}
}

// WithBatchLogger sets the logger.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(o *batchOptions) {
		o.logger = l
	}
}

// WithObserver registers a callback invoked after every lookup.
func WithObserver(fn func(Result, error)) BatchOption {
	return func(o *batchOptions) {
		o.onDone = fn
	}
}

// Batch geocodes addresses in order. A failing address is recorded in
// Failures and never fails the batch; only context cancellation aborts it.
func Batch(ctx context.Context, g Geocoder, addresses []string, optFns ...BatchOption) (*BatchResult, error) {
	o := batchOptions{}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	res := &BatchResult{}
	for i, addr := range addresses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.limit > 0 && len(res.Found) >= o.limit {
			break
		}

		r, err := g.Geocode(ctx, addr)
		if o.onDone != nil {
			o.onDone(r, err)
		}

		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
			}
			o.logger.WarnContext(ctx, "geocoding failed", "address", addr, "error", err)
			res.Failures = append(res.Failures, Failure{Index: i, Address: addr, Reason: err.Error(), Err: err})
		case !r.Found:
			o.logger.InfoContext(ctx, "address could not be found", "address", addr, "cached", r.Cached)
			res.Failures = append(res.Failures, Failure{Index: i, Address: addr, Reason: ErrNotFound.Error()})
		case !r.LatLng().Valid():
			o.logger.WarnContext(ctx, "geocoder returned invalid coordinate", "address", addr, "lat", r.Latitude, "lng", r.Longitude)
			res.Failures = append(res.Failures, Failure{Index: i, Address: addr, Reason: "invalid coordinate"})
		default:
			res.Found = append(res.Found, r)
			res.Indices = append(res.Indices, i)
		}
	}
	return res, nil
}
