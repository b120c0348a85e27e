package sheet

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file names without a .csv or .xlsx extension.
	ErrUnsupportedFormat = errors.New("sheet: unsupported file type, use .csv or .xlsx")
	// ErrUnreadable is returned when the content cannot be parsed as the declared format.
	ErrUnreadable = errors.New("sheet: could not read spreadsheet")
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("sheet: missing column")
)

// Column names that make up a delivery address.
const (
	ColumnAddress = "Address"
	ColumnCity    = "City"
	ColumnState   = "State"
)

// Format is a spreadsheet file format.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file name extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Table is a parsed spreadsheet: a header row and one record per data row.
type Table struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

// Parse reads a spreadsheet whose format is taken from filename.
func Parse(filename string, r io.Reader) (*Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return ParseCSV(r)
	default:
		return ParseXLSX(r)
	}
}

// Addresses returns "Address City State" for every row, in row order.
// Rows where all three cells are blank are skipped.
func (t *Table) Addresses() ([]string, error) {
	cols := make([]string, 0, 3)
	for _, want := range []string{ColumnAddress, ColumnCity, ColumnState} {
		name, ok := t.column(want)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, want)
		}
		cols = append(cols, name)
	}

	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		parts := make([]string, 0, len(cols))
		for _, c := range cols {
			if v := strings.TrimSpace(row[c]); v != "" {
				parts = append(parts, v)
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out, nil
}

// column finds a header by case-insensitive match.
func (t *Table) column(name string) (string, bool) {
	for _, c := range t.Columns {
		if c == name {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return c, true
		}
	}
	return "", false
}

// newTable builds a Table from raw rows. The first row with any non-blank
// cell is the header.
func newTable(records [][]string) (*Table, error) {
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: no header row", ErrUnreadable)
	}

	columns := headers(records[start])
	t := &Table{
		Columns: columns,
		Rows:    make([]map[string]string, 0, len(records)-start-1),
	}
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(rec) {
				row[c] = rec[i]
			} else {
				row[c] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// headers trims header cells, names blank ones "Unnamed: i" and suffixes
// repeats with ".1", ".2", ...
func headers(rec []string) []string {
	out := make([]string, len(rec))
	seen := make(map[string]int, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = h + "." + strconv.Itoa(n)
		} else {
			seen[h] = 1
		}
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
