package routeplan

import (
	"errors"
	"fmt"

	"github.com/bpnn/routeplan/balance"
)

var (
	// ErrInvalidClusterCount is returned when k is not in [1, geocoded addresses].
	ErrInvalidClusterCount = errors.New("routeplan: invalid cluster count")

	// ErrNoLocations is returned when none of the addresses could be geocoded.
	ErrNoLocations = errors.New("routeplan: no address could be geocoded")
)

// ErrClustering indicates an internal clustering failure. It is a defect,
// not a caller error; retrying with the same input fails the same way.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrClustering struct {
	Op     string
	Points int
	K      int
	cause  error
}

func (e *ErrClustering) Error() string {
	return fmt.Sprintf("routeplan: clustering failed in %s (points=%d, k=%d): %v", e.Op, e.Points, e.K, e.cause)
}

func (e *ErrClustering) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, balance.ErrInvalidClusterCount) {
		return fmt.Errorf("%w: %w", ErrInvalidClusterCount, err)
	}

	var ie *balance.InvariantError
	if errors.As(err, &ie) {
		return &ErrClustering{Op: ie.Op, Points: ie.N, K: ie.K, cause: err}
	}

	return err
}
