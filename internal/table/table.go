// Package table provides the tabular data handle passed between pipeline
// steps. The graph and the coordinator treat it as opaque; only plugins look
// inside.
package table

import (
	"errors"
	"fmt"
)

// ErrRowWidth is returned when a row does not match the table's column count.
var ErrRowWidth = errors.New("row width does not match column count")

// Table is a named, column-oriented set of string rows.
type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Append adds a row. The row must have exactly one value per column.
func (t *Table) Append(row ...string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("table %q: %w: got %d, want %d", t.Name, ErrRowWidth, len(row), len(t.Columns))
	}
	r := make([]string, len(row))
	copy(r, row)
	t.Rows = append(t.Rows, r)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Values returns a copy of every value in the named column, in row order.
func (t *Table) Values(column string) ([]string, error) {
	idx, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("table %q: unknown column %q", t.Name, column)
	}
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[idx])
	}
	return out, nil
}

// Clone returns a deep copy of the table. A nil table clones to nil.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := New(t.Name, t.Columns...)
	c.Rows = make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, len(r))
		copy(row, r)
		c.Rows = append(c.Rows, row)
	}
	return c
}
