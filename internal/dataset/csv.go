// Package dataset loads tabular price history from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"signaljob/internal/errs"
)

// CloseColumn is the column every input table must carry.
const CloseColumn = "close"

// Table is an ordered set of CSV rows keyed by the header.
type Table struct {
	Header  []string
	Rows    [][]string
	columns map[string]int
}

// LoadCSV reads a CSV file with a header row and validates that it holds at
// least one row and a close column. Other columns are kept as raw text.
func LoadCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Input CSV file not found.")
		}
		return nil, errs.Wrap(errs.ErrParse, err, "Invalid CSV file format.")
	}
	defer file.Close()

	table, err := parse(file)
	if err != nil {
		return nil, errs.Wrap(errs.ErrParse, err, "Invalid CSV file format.")
	}
	if table.Len() == 0 {
		return nil, errs.New(errs.ErrEmptyInput, "Input CSV file is empty.")
	}
	if !table.Has(CloseColumn) {
		return nil, errs.New(errs.ErrMissingColumn, fmt.Sprintf("Required column '%s' is missing.", CloseColumn))
	}
	return table, nil
}

func parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // short rows are allowed; long rows are rejected below

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no columns to parse from file")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	table := &Table{Header: header, columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := table.columns[name]; !dup {
			table.columns[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(record))
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the header names the column.
func (t *Table) Has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// Float64s returns the column as numbers aligned with the rows. Blank cells,
// and cells past the end of a short row, are missing values and come back as NaN.
func (t *Table) Float64s(column string) ([]float64, error) {
	if !t.Has(column) {
		return nil, errs.New(errs.ErrMissingColumn, fmt.Sprintf("Required column '%s' is missing.", column))
	}
	idx := t.columns[column]
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if idx >= len(row) {
			out[i] = math.NaN()
			continue
		}
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errs.Wrap(errs.ErrParse, err,
				fmt.Sprintf("Column '%s' is not numeric: row %d has %q", column, i+1, row[idx]))
		}
		out[i] = v
	}
	return out, nil
}
