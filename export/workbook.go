package export

import (
	"fmt"
	"io"
	"math"

	"github.com/bpnn/routeplan"
	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SummarySheet  = "Summary"
	ExcludedSheet = "Excluded"
)

var (
	summaryHeader   = []any{"Cluster ID", "Number of Stops", "Total Distance (km)", "Total Duration (min)"}
	itineraryHeader = []any{"Stop Number", "Location", "Address", "Latitude", "Longitude", "Distance to Next (km)", "Time to Next (min)"}
	excludedHeader  = []any{"Index", "Address", "Reason"}
)

// ClusterSheet returns the sheet name holding the route of group i.
func ClusterSheet(i int) string {
	return fmt.Sprintf("Cluster %d", i)
}

// WriteWorkbook writes plan as an xlsx workbook.
//
// The Summary sheet lists every routed group followed by a TOTAL row. Each
// routed group gets a "Cluster N" sheet with its stop list. Addresses that
// could not be geocoded are listed on an Excluded sheet when there are any.
func WriteWorkbook(w io.Writer, plan *routeplan.Plan) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SummarySheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sw := &sheetWriter{f: f, bold: bold}
	sw.header(SummarySheet, summaryHeader)

	var stops int
	var km, minutes float64
	row := 2
	for _, g := range plan.Groups {
		if g.Trip == nil {
			continue
		}
		sw.row(SummarySheet, row, []any{g.Index, len(g.Stops), g.Trip.DistanceKm(), g.Trip.DurationMinutes()})
		stops += len(g.Stops)
		km += g.Trip.DistanceKm()
		minutes += g.Trip.DurationMinutes()
		row++
	}
	sw.row(SummarySheet, row, []any{"TOTAL", stops, math.Round(km*100) / 100, math.Round(minutes*100) / 100})
	sw.style(SummarySheet, row, len(summaryHeader))

	for _, g := range plan.Groups {
		if g.Trip == nil {
			continue
		}
		name := ClusterSheet(g.Index)
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
		sw.header(name, itineraryHeader)
		for i, s := range g.Itinerary {
			sw.row(name, i+2, []any{
				s.StopNumber, s.Label, s.Address, s.Latitude, s.Longitude,
				s.DistanceToNextKm, s.TimeToNextMin,
			})
		}
	}

	if len(plan.Excluded) > 0 {
		if _, err := f.NewSheet(ExcludedSheet); err != nil {
			return err
		}
		sw.header(ExcludedSheet, excludedHeader)
		for i, e := range plan.Excluded {
			sw.row(ExcludedSheet, i+2, []any{e.Index, e.Address, e.Reason})
		}
	}

	if sw.err != nil {
		return fmt.Errorf("export: workbook: %w", sw.err)
	}
	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// sheetWriter remembers the first error so rows can be written without
// checking each call.
type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (sw *sheetWriter) header(sheet string, cols []any) {
	sw.row(sheet, 1, cols)
	sw.style(sheet, 1, len(cols))
	if sw.err == nil {
		sw.err = sw.f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	}
}

func (sw *sheetWriter) row(sheet string, row int, values []any) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetSheetRow(sheet, cell, &values)
}

func (sw *sheetWriter) style(sheet string, row, cols int) {
	if sw.err != nil {
		return
	}
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		sw.err = err
		return
	}
	to, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		sw.err = err
		return
	}
	sw.err = sw.f.SetCellStyle(sheet, from, to, sw.bold)
}
