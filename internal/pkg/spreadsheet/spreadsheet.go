// Package spreadsheet reads and writes single-sheet tables whose first row
// is a header, the shape teachers exchange attendance sheets in.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format: only .xlsx and .xls are accepted")
	ErrNoSheet           = errors.New("spreadsheet has no sheets")
	ErrNoHeader          = errors.New("spreadsheet has no header row")
)

// Row maps header names to cell text.
type Row struct {
	// Number is the 1-based sheet row the values came from
	Number int
	Values map[string]string
}

// Get returns the cell under header, or "" when the row has no such cell
func (r Row) Get(header string) string {
	return r.Values[header]
}

// Table is a header plus data rows.
type Table struct {
	Header []string
	Rows   []Row
}

// HasColumn reports whether the header contains name
func (t Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}
	return false
}

// WriteXLSX renders header and rows into a workbook with a single sheet.
// Every cell is written as text so values like roll number "01" survive.
func WriteXLSX(sheet string, header []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	writeRow := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(1, header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Read parses the first sheet of an .xlsx or .xls document. The format is
// chosen by the filename extension. Blank rows are skipped.
func Read(r io.Reader, filename string) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read spreadsheet: %w", err)
	}

	var grid [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		grid, err = readXLSX(data)
	case ".xls":
		grid, err = readXLS(data)
	default:
		return Table{}, ErrUnsupportedFormat
	}
	if err != nil {
		return Table{}, err
	}

	return toTable(grid)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func toTable(grid [][]string) (Table, error) {
	headerIdx := -1
	for i, cells := range grid {
		if !isBlank(cells) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return Table{}, ErrNoHeader
	}

	header := make([]string, len(grid[headerIdx]))
	for i, h := range grid[headerIdx] {
		header[i] = strings.TrimSpace(h)
	}

	table := Table{Header: header}
	for i := headerIdx + 1; i < len(grid); i++ {
		cells := grid[i]
		if isBlank(cells) {
			continue
		}
		values := make(map[string]string, len(header))
		for col, name := range header {
			if name == "" || col >= len(cells) {
				continue
			}
			values[name] = cells[col]
		}
		table.Rows = append(table.Rows, Row{Number: i + 1, Values: values})
	}
	return table, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
