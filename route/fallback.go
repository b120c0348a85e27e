package route

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bpnn/routeplan/distance"
)

// Fallback tries Primary and, when it fails for any reason other than
// cancellation or bad input, solves the trip with Secondary instead.
type Fallback struct {
	Primary   Optimizer
	Secondary Optimizer
	Logger    *slog.Logger
}

// Trip implements Optimizer.
func (f *Fallback) Trip(ctx context.Context, depot distance.LatLng, stops []distance.LatLng) (*Trip, error) {
	trip, err := f.Primary.Trip(ctx, depot, stops)
	if err == nil {
		return trip, nil
	}
	if ctx.Err() != nil || errors.Is(err, ErrNoStops) {
		return nil, err
	}

	if f.Logger != nil {
		f.Logger.WarnContext(ctx, "primary router failed, using fallback", "stops", len(stops), "error", err)
	}
	return f.Secondary.Trip(ctx, depot, stops)
}
