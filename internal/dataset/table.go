// Package dataset holds the in-memory tabular representation of the scored
// district table and the auxiliary mapping files.
//
// Column presence is a runtime fact: callers check Has before binding an
// optional column instead of assuming a schema.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

// Table is an ordered set of named string columns. A Table is never mutated
// after construction; derived tables are copies.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a table from a header and rows. Short rows are padded with
// empty cells, long rows are rejected.
func New(columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, exists := index[col]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, col)
		}
		index[col] = i
	}

	normalized := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) > len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d: %w", i, len(row), len(columns), ErrLengthMismatch)
		}
		cells := make([]string, len(columns))
		copy(cells, row)
		normalized[i] = cells
	}

	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    normalized,
	}, nil
}

func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Has reports whether the column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

func (t *Table) Value(row int, col string) (string, bool) {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return "", false
	}
	return t.rows[row][i], true
}

// Row returns a copy of the cells of row i in column order.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

func (t *Table) Column(col string) ([]string, error) {
	i, ok := t.index[col]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col)
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// Floats parses a numeric column. Blank cells become NaN.
func (t *Table) Floats(col string) ([]float64, error) {
	values, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for r, v := range values {
		if v == "" || v == "NaN" || v == "nan" {
			out[r] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %w", col, r, err)
		}
		out[r] = f
	}
	return out, nil
}

// WithColumn returns a copy of the table with col set to values, appending the
// column when it does not exist yet.
func (t *Table) WithColumn(col string, values []string) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows: %w", col, len(values), len(t.rows), ErrLengthMismatch)
	}

	columns := t.Columns()
	i, exists := t.index[col]
	if !exists {
		columns = append(columns, col)
		i = len(columns) - 1
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		cells := make([]string, len(columns))
		copy(cells, row)
		cells[i] = values[r]
		rows[r] = cells
	}

	return New(columns, rows)
}

// Select projects the table onto cols, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	positions := make([]int, len(cols))
	for i, col := range cols {
		p, ok := t.index[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col)
		}
		positions[i] = p
	}

	rows := make([][]string, len(t.rows))
	for r, row := range t.rows {
		cells := make([]string, len(cols))
		for i, p := range positions {
			cells[i] = row[p]
		}
		rows[r] = cells
	}
	return New(cols, rows)
}

// Take returns the rows at the given positions, in order.
func (t *Table) Take(positions []int) *Table {
	rows := make([][]string, 0, len(positions))
	for _, p := range positions {
		rows = append(rows, t.rows[p])
	}
	out, _ := New(t.columns, rows)
	return out
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	if n < 0 {
		n = 0
	}
	out, _ := New(t.columns, t.rows[:n])
	return out
}

// DropDuplicates keeps the first row for every distinct key. With no key
// columns the whole row is the key.
func (t *Table) DropDuplicates(keys ...string) (*Table, error) {
	positions := make([]int, 0, len(keys))
	for _, key := range keys {
		p, ok := t.index[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, key)
		}
		positions = append(positions, p)
	}
	if len(positions) == 0 {
		for i := range t.columns {
			positions = append(positions, i)
		}
	}

	seen := make(map[string]struct{}, len(t.rows))
	kept := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		k := rowKey(row, positions)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	return New(t.columns, kept)
}

// Concat stacks tables with identical headers, preserving order.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil, nil)
	}
	columns := tables[0].columns
	var rows [][]string
	for i, tbl := range tables {
		if !sameColumns(columns, tbl.columns) {
			return nil, fmt.Errorf("table %d columns %v do not match %v: %w", i, tbl.columns, columns, ErrLengthMismatch)
		}
		rows = append(rows, tbl.rows...)
	}
	return New(columns, rows)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func rowKey(row []string, positions []int) string {
	if len(positions) == 1 {
		return row[positions[0]]
	}
	key := make([]byte, 0, 64)
	for _, p := range positions {
		key = strconv.AppendQuote(key, row[p])
	}
	return string(key)
}
