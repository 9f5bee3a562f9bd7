// Package table holds raw spreadsheet tables as loaded from CSV files or
// workbook sheets, and resolves their loosely named columns.
package table

import (
	"strings"
	"unicode"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Table is one loaded CSV file or workbook sheet. It only lives for the
// duration of ingestion.
type Table struct {
	Source string
	Sheet  string
	Format Format
	Header []string
	Rows   [][]string
	// Err is set for a workbook sheet that could not be read. Header and
	// Rows are empty and the rest of the workbook still loads.
	Err error
}

// Label names the table in records and logs: the path for CSV files and
// "path::sheet" for workbook sheets.
func (t *Table) Label() string {
	if t.Sheet == "" {
		return t.Source
	}
	return t.Source + "::" + t.Sheet
}

// Columns returns the header names lower-cased with whitespace collapsed,
// the form the classifier matches signatures against.
func (t *Table) Columns() map[string]bool {
	cols := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		if k := headerKey(h); k != "" {
			cols[k] = true
		}
	}
	return cols
}

// FindColumn returns the actual header matching the first usable candidate.
// Pass one compares case-insensitively after trimming; pass two drops every
// non-alphanumeric character, so "Workshop #" answers to "Workshop".
// Candidate order is the caller's preference among synonyms.
func (t *Table) FindColumn(candidates ...string) (string, bool) {
	idx := t.ColumnIndex(candidates...)
	if idx < 0 {
		return "", false
	}
	return t.Header[idx], true
}

// ColumnIndex is FindColumn returning the header position, or -1.
func (t *Table) ColumnIndex(candidates ...string) int {
	for _, c := range candidates {
		want := headerKey(c)
		if want == "" {
			continue
		}
		for i, h := range t.Header {
			if headerKey(h) == want {
				return i
			}
		}
	}
	for _, c := range candidates {
		want := compact(c)
		if want == "" {
			continue
		}
		for i, h := range t.Header {
			if compact(h) == want {
				return i
			}
		}
	}
	return -1
}

// Value returns the trimmed cell at idx, or "" for unresolved columns and
// short rows.
func Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func headerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
