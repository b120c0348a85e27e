package deliverer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bpnn/routeplan"
)

var (
	// ErrNotFound is returned for an unknown deliverer.
	ErrNotFound = errors.New("deliverer: not found")
	// ErrDuplicateName is returned when a deliverer name is already taken.
	ErrDuplicateName = errors.New("deliverer: name already exists")
	// ErrEmptyName is returned for a blank deliverer name.
	ErrEmptyName = errors.New("deliverer: empty name")
	// ErrEmptyLocation is returned for a blank location.
	ErrEmptyLocation = errors.New("deliverer: empty location")
)

// Deliverer is a driver that locations are assigned to.
type Deliverer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Store persists deliverers and the locations assigned to them.
type Store interface {
	// CreateDeliverer registers a new deliverer with a unique name.
	CreateDeliverer(ctx context.Context, name string) (Deliverer, error)
	// ByName looks a deliverer up by name.
	ByName(ctx context.Context, name string) (Deliverer, error)
	// AddLocation assigns a location to a deliverer.
	AddLocation(ctx context.Context, delivererID int64, location string) error
	// Locations returns a deliverer's locations in the order they were added.
	Locations(ctx context.Context, delivererID int64) ([]string, error)
	// List returns all deliverers ordered by ID.
	List(ctx context.Context) ([]Deliverer, error)
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func checkLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		return ErrEmptyLocation
	}
	return nil
}

// Assignment records the locations handed to one deliverer.
type Assignment struct {
	Deliverer Deliverer `json:"deliverer"`
	Group     int       `json:"group"`
	Locations []string  `json:"locations"`
}

// AssignPlan hands group i of plan to the deliverer named names[i], creating
// deliverers that do not exist yet. Routed groups are stored in visit order,
// unrouted ones in input order.
func AssignPlan(ctx context.Context, s Store, plan *routeplan.Plan, names []string) ([]Assignment, error) {
	if len(names) != len(plan.Groups) {
		return nil, fmt.Errorf("deliverer: %d names for %d groups", len(names), len(plan.Groups))
	}

	out := make([]Assignment, 0, len(plan.Groups))
	for i, g := range plan.Groups {
		d, err := s.ByName(ctx, names[i])
		if errors.Is(err, ErrNotFound) {
			d, err = s.CreateDeliverer(ctx, names[i])
		}
		if err != nil {
			return nil, fmt.Errorf("deliverer: group %d: %w", g.Index, err)
		}

		locations := groupLocations(g)
		for _, loc := range locations {
			if err := s.AddLocation(ctx, d.ID, loc); err != nil {
				return nil, fmt.Errorf("deliverer: group %d: %w", g.Index, err)
			}
		}
		out = append(out, Assignment{Deliverer: d, Group: g.Index, Locations: locations})
	}
	return out, nil
}

func groupLocations(g routeplan.PlanGroup) []string {
	if len(g.Itinerary) > 0 {
		out := make([]string, 0, len(g.Stops))
		for _, s := range g.Itinerary {
			if s.Index >= 0 {
				out = append(out, s.Address)
			}
		}
		return out
	}
	out := make([]string, len(g.Stops))
	for i, s := range g.Stops {
		out[i] = s.Address
	}
	return out
}
