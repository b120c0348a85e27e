package deliverer

import (
	"context"
	"testing"

	"github.com/bpnn/routeplan"
	"github.com/bpnn/routeplan/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() *routeplan.Plan {
	return &routeplan.Plan{
		K: 2,
		Groups: []routeplan.PlanGroup{
			{
				Index: 0,
				Stops: []routeplan.Stop{
					{Index: 0, Address: "1 Oak St"},
					{Index: 2, Address: "3 Oak St"},
				},
				Itinerary: []route.ItineraryStop{
					{StopNumber: 0, Label: route.LabelStart, Index: -1},
					{StopNumber: 1, Address: "3 Oak St", Index: 1},
					{StopNumber: 2, Address: "1 Oak St", Index: 0},
					{StopNumber: 3, Label: route.LabelReturn, Index: -1},
				},
			},
			{
				Index: 1,
				Stops: []routeplan.Stop{
					{Index: 1, Address: "2 Elm St"},
					{Index: 3, Address: "4 Elm St"},
				},
				RouteError: "routing unavailable",
			},
		},
	}
}

func TestAssignPlan(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	existing, err := s.CreateDeliverer(ctx, "Alice")
	require.NoError(t, err)
	require.NoError(t, s.AddLocation(ctx, existing.ID, "9 Pine St"))

	got, err := AssignPlan(ctx, s, testPlan(), []string{"Alice", "Bob"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, existing, got[0].Deliverer)
	assert.Equal(t, []string{"3 Oak St", "1 Oak St"}, got[0].Locations)
	assert.Equal(t, "Bob", got[1].Deliverer.Name)
	assert.Equal(t, 1, got[1].Group)
	assert.Equal(t, []string{"2 Elm St", "4 Elm St"}, got[1].Locations)

	locs, err := s.Locations(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"9 Pine St", "3 Oak St", "1 Oak St"}, locs)

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestAssignPlan_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := AssignPlan(ctx, NewMemoryStore(), testPlan(), []string{"Alice"})
	assert.Error(t, err)

	_, err = AssignPlan(ctx, NewMemoryStore(), testPlan(), []string{"Alice", " "})
	assert.ErrorIs(t, err, ErrEmptyName)
}
