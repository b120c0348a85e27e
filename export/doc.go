// Package export writes plans for drivers and downstream analysis.
//
// WriteWorkbook produces an xlsx workbook with a Summary sheet and one sheet
// per routed group. WriteStopsParquet produces one flat row per itinerary
// stop.
package export
