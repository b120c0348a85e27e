package export

import (
	"fmt"
	"io"

	"github.com/bpnn/routeplan"
	"github.com/parquet-go/parquet-go"
)

// StopRecord is one itinerary row in the flat stop export.
type StopRecord struct {
	PlanID           string  `parquet:"plan_id,dict"`
	Cluster          int32   `parquet:"cluster"`
	StopNumber       int32   `parquet:"stop_number"`
	Label            string  `parquet:"location,dict"`
	Address          string  `parquet:"address"`
	Latitude         float64 `parquet:"latitude"`
	Longitude        float64 `parquet:"longitude"`
	DistanceToNextKm float64 `parquet:"distance_to_next_km"`
	TimeToNextMin    float64 `parquet:"time_to_next_min"`
	// InputRow is the position of the address in the plan input, -1 for the depot.
	InputRow int32 `parquet:"input_row"`
}

// StopRecords flattens the itineraries of all routed groups.
func StopRecords(plan *routeplan.Plan) []StopRecord {
	var out []StopRecord
	for _, g := range plan.Groups {
		for _, s := range g.Itinerary {
			input := int32(-1)
			if s.Index >= 0 && s.Index < len(g.Stops) {
				input = int32(g.Stops[s.Index].Index)
			}
			out = append(out, StopRecord{
				PlanID:           plan.ID,
				Cluster:          int32(g.Index),
				StopNumber:       int32(s.StopNumber),
				Label:            s.Label,
				Address:          s.Address,
				Latitude:         s.Latitude,
				Longitude:        s.Longitude,
				DistanceToNextKm: s.DistanceToNextKm,
				TimeToNextMin:    s.TimeToNextMin,
				InputRow:         input,
			})
		}
	}
	return out
}

// WriteStopsParquet writes StopRecords(plan) as a zstd-compressed Parquet file.
func WriteStopsParquet(w io.Writer, plan *routeplan.Plan) error {
	pw := parquet.NewGenericWriter[StopRecord](w, parquet.Compression(&parquet.Zstd))

	if rows := StopRecords(plan); len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return fmt.Errorf("export: write stops: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("export: close parquet: %w", err)
	}
	return nil
}
