package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var ErrEmptyFile = errors.New("empty file")

// ReadCSV reads a comma separated table with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return New(header, rows)
}

// ReadCSVColumns reads only the named columns, in the given order. A missing
// column is an error wrapping ErrColumnNotFound.
func ReadCSVColumns(r io.Reader, cols ...string) (*Table, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(cols))
	for i, col := range cols {
		p := findColumn(header, col)
		if p < 0 {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col)
		}
		positions[i] = p
	}

	projected := make([][]string, len(rows))
	for r, row := range rows {
		cells := make([]string, len(cols))
		for i, p := range positions {
			if p < len(row) {
				cells[i] = row[p]
			}
		}
		projected[r] = cells
	}
	return New(cols, projected)
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, ErrEmptyFile
	}

	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = cleanCell(cell)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		row := make([]string, len(rec))
		for i, cell := range rec {
			row[i] = cleanCell(cell)
		}
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	v = strings.TrimSpace(v)
	return norm.NFC.String(v)
}

func findColumn(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
