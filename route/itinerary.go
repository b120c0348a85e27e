package route

import (
	"fmt"
	"strconv"

	"github.com/bpnn/routeplan/distance"
)

// Place is an addressed coordinate.
type Place struct {
	Address  string          `json:"address"`
	Location distance.LatLng `json:"location"`
}

// Labels used for the depot rows of an itinerary.
const (
	LabelStart  = "START LOCATION"
	LabelReturn = "START LOCATION (Return)"
)

// ItineraryStop is one row of a driver's stop list.
type ItineraryStop struct {
	StopNumber       int     `json:"stop_number"`
	Label            string  `json:"location"`
	Address          string  `json:"address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	DistanceToNextKm float64 `json:"distance_to_next_km"`
	TimeToNextMin    float64 `json:"time_to_next_min"`
	// Index is the position of the stop in the input slice, -1 for the depot.
	Index int `json:"-"`
}

// Itinerary lays out trip as a stop list: the depot first, then every stop
// in visit order, then the return to the depot. Each row carries the leg that
// leaves it; the return row carries zeros.
func Itinerary(depot Place, stops []Place, trip *Trip) ([]ItineraryStop, error) {
	n := len(stops)
	if trip == nil || len(trip.VisitOrder) != n+1 {
		return nil, fmt.Errorf("%w: trip does not cover %d stops", ErrInvalidTrip, n)
	}

	leg := func(p int) Leg {
		if p < len(trip.Legs) {
			return trip.Legs[p]
		}
		return Leg{}
	}

	out := make([]ItineraryStop, 0, n+2)
	first := leg(0)
	out = append(out, ItineraryStop{
		StopNumber:       0,
		Label:            LabelStart,
		Address:          depot.Address,
		Latitude:         depot.Location.Lat,
		Longitude:        depot.Location.Lng,
		Index:            -1,
		DistanceToNextKm: first.DistanceKm(),
		TimeToNextMin:    first.DurationMinutes(),
	})

	for p := 1; p <= n; p++ {
		idx := trip.VisitOrder[p] - 1
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: waypoint %d out of range", ErrInvalidTrip, trip.VisitOrder[p])
		}
		s := stops[idx]
		l := leg(p)
		out = append(out, ItineraryStop{
			StopNumber:       p,
			Label:            "Stop " + strconv.Itoa(p),
			Address:          s.Address,
			Latitude:         s.Location.Lat,
			Longitude:        s.Location.Lng,
			Index:            idx,
			DistanceToNextKm: l.DistanceKm(),
			TimeToNextMin:    l.DurationMinutes(),
		})
	}

	out = append(out, ItineraryStop{
		StopNumber: n + 1,
		Label:      LabelReturn,
		Address:    depot.Address,
		Latitude:   depot.Location.Lat,
		Longitude:  depot.Location.Lng,
		Index:      -1,
	})
	return out, nil
}
