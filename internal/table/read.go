package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Load reads every table in path: one for a CSV file, one per sheet for a
// workbook. Sheets without a header row are left out.
func Load(path string) ([]*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err := ReadCSV(path)
		if err != nil {
			return nil, err
		}
		return []*Table{t}, nil
	case ".xlsx", ".xlsm":
		return ReadWorkbook(path)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}
}

func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	t := fromRows(rows)
	t.Source = path
	t.Format = FormatCSV
	if len(t.Header) > 0 {
		t.Header[0] = strings.TrimPrefix(t.Header[0], "\ufeff")
	}
	return t, nil
}

// ReadWorkbook loads each sheet as its own table. Date cells are rendered
// as ISO dates whatever their display format, so "3/4/2025" styled as
// m/d/yyyy cannot be misread day-first later. A sheet that fails to read
// comes back as a table carrying Err.
func ReadWorkbook(path string) ([]*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var date1904 bool
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	styles := newDateStyles(f)

	var tables []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := readSheet(f, sheet, styles, date1904)
		if err != nil {
			tables = append(tables, &Table{
				Source: path,
				Sheet:  sheet,
				Format: FormatXLSX,
				Err:    fmt.Errorf("read sheet %s::%s: %w", path, sheet, err),
			})
			continue
		}
		t := fromRows(rows)
		if len(t.Header) == 0 {
			continue
		}
		t.Source = path
		t.Sheet = sheet
		t.Format = FormatXLSX
		tables = append(tables, t)
	}
	return tables, nil
}

// readSheet returns the displayed cell text of sheet with date-formatted
// numeric cells replaced by yyyy-mm-dd.
func readSheet(f *excelize.File, sheet string, styles *dateStyles, date1904 bool) ([][]string, error) {
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	for r, row := range shown {
		if r >= len(raw) {
			break
		}
		for c, text := range row {
			if c >= len(raw[r]) || raw[r][c] == text {
				continue
			}
			serial, err := strconv.ParseFloat(raw[r][c], 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil || !styles.isDate(sheet, cell) {
				continue
			}
			if tm, err := excelize.ExcelDateToTime(serial, date1904); err == nil {
				row[c] = isoDate(tm)
			}
		}
	}
	return shown, nil
}

// fromRows treats the first non-blank row as the header and drops blank
// rows everywhere else.
func fromRows(rows [][]string) *Table {
	t := &Table{}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
