// Package sheet parses uploaded delivery spreadsheets.
//
// Supported formats are CSV and XLSX (first worksheet). Every cell is read as
// text; the first non-blank row is the header.
package sheet
