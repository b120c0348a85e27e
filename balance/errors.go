package balance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidClusterCount is returned when k is outside [1, len(points)].
	// It is a caller error: choose a smaller k or supply more points.
	ErrInvalidClusterCount = errors.New("balance: invalid cluster count")

	// ErrDimensionMismatch is returned when points do not share one dimension.
	ErrDimensionMismatch = errors.New("balance: points must share one dimension")

	// ErrDuplicateID is returned when two points carry the same identifier.
	ErrDuplicateID = errors.New("balance: duplicate point id")

	// ErrInvalidCostMatrix signals a malformed or non-finite cost matrix.
	ErrInvalidCostMatrix = errors.New("balance: invalid cost matrix")

	// ErrInvalidAssignment signals an assignment that is not a slot bijection.
	ErrInvalidAssignment = errors.New("balance: invalid assignment")

	// ErrEmptyCluster signals a cluster without members during recomputation.
	ErrEmptyCluster = errors.New("balance: empty cluster")
)

// InvariantError reports an internal invariant violation together with the
// input dimensions needed to reproduce it. These errors indicate a defect,
// never bad user input; retrying with the same input fails the same way.
//
// The sentinel (ErrInvalidCostMatrix, ErrInvalidAssignment, ErrEmptyCluster)
// can be matched with errors.Is.
type InvariantError struct {
	Op  string
	N   int
	K   int
	Dim int
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("balance: %s (n=%d, k=%d, dim=%d): %v", e.Op, e.N, e.K, e.Dim, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// IsInvariant reports whether err is an internal invariant violation.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
