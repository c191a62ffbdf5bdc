package dataset

/**
* Dataset holds the in-memory match tables that the scrapers produce and the model
* training code consumes, together with the filtering and partitioning applied
* between the two.
 */

import (
	"fmt"
	"strings"
)

// Row is one record of a Table. ID is the row's position in the table it was first
// read into and survives filtering, projection and splitting, so it can be used to
// check partitions against each other.
type Row struct {
	ID     int
	Values []string
}

// Table is an ordered set of rows sharing a fixed column schema
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// NewTable creates an empty table with the given schema. Column names must be unique
// and non-empty.
func NewTable(columns []string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, &SchemaError{Column: c, Reason: fmt.Sprintf("column %d has no name", i)}
		}
		if _, dup := index[c]; dup {
			return nil, &SchemaError{Column: c, Reason: "duplicate column"}
		}
		index[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{columns: cols, index: index}, nil
}

// MustTable is NewTable for schemas known to be valid, adding the given rows
func MustTable(columns []string, rows ...[]string) *Table {
	t, err := NewTable(columns)
	if err != nil {
		panic(err)
	}
	for _, r := range rows {
		if err := t.Append(r); err != nil {
			panic(err)
		}
	}
	return t
}

// Append adds a row, assigning it the next row ID
func (t *Table) Append(values []string) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(values), len(t.columns))
	}
	v := make([]string, len(values))
	copy(v, values)
	t.rows = append(t.rows, Row{ID: len(t.rows), Values: v})
	return nil
}

// Columns returns a copy of the schema
func (t *Table) Columns() []string {
	cols := make([]string, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i'th row
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns the rows in order. The slice must not be modified.
func (t *Table) Rows() []Row {
	return t.rows
}

// HasColumn reports whether the column is part of the schema
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of a column or a SchemaError
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, &SchemaError{Column: name, Reason: "not in table schema"}
	}
	return i, nil
}

// Value returns the cell at row i, column name
func (t *Table) Value(i int, column string) (string, error) {
	c, err := t.ColumnIndex(column)
	if err != nil {
		return "", err
	}
	return t.rows[i].Values[c], nil
}

// Column returns every value of one column in row order
func (t *Table) Column(name string) ([]string, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(t.rows))
	for i, r := range t.rows {
		ret[i] = r.Values[c]
	}
	return ret, nil
}

// IDs returns the row IDs in order
func (t *Table) IDs() []int {
	ids := make([]int, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.ID
	}
	return ids
}

// Select returns a new table holding only the named columns, in the order given
func (t *Table) Select(columns []string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		ci, err := t.ColumnIndex(c)
		if err != nil {
			return nil, err
		}
		idx[i] = ci
	}
	out, err := NewTable(columns)
	if err != nil {
		return nil, err
	}
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		v := make([]string, len(idx))
		for j, ci := range idx {
			v[j] = r.Values[ci]
		}
		out.rows[i] = Row{ID: r.ID, Values: v}
	}
	return out, nil
}

// Drop returns a new table without the named column
func (t *Table) Drop(column string) (*Table, error) {
	if !t.HasColumn(column) {
		return nil, &SchemaError{Column: column, Reason: "not in table schema"}
	}
	keep := make([]string, 0, len(t.columns)-1)
	for _, c := range t.columns {
		if c != column {
			keep = append(keep, c)
		}
	}
	return t.Select(keep)
}

// Where returns a new table with the rows for which keep returns true, in order
func (t *Table) Where(keep func(Row) bool) *Table {
	out := t.emptyCopy()
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// WithColumn returns a new table with an extra column whose value is computed per row.
// Replaces the column if it already exists.
func (t *Table) WithColumn(name string, value func(Row) (string, error)) (*Table, error) {
	cols := t.Columns()
	pos, exists := t.index[name]
	if !exists {
		cols = append(cols, name)
		pos = len(cols) - 1
	}
	out, err := NewTable(cols)
	if err != nil {
		return nil, err
	}
	out.rows = make([]Row, len(t.rows))
	for i, r := range t.rows {
		v, err := value(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.ID, err)
		}
		values := make([]string, len(cols))
		copy(values, r.Values)
		values[pos] = v
		out.rows[i] = Row{ID: r.ID, Values: values}
	}
	return out, nil
}

// Concat appends the rows of other, projected onto this table's schema, renumbering
// their IDs so they stay unique
func (t *Table) Concat(other *Table) (*Table, error) {
	projected, err := other.Select(t.columns)
	if err != nil {
		return nil, err
	}
	out := t.emptyCopy()
	out.rows = append(out.rows, t.rows...)
	next := 0
	for _, r := range t.rows {
		if r.ID >= next {
			next = r.ID + 1
		}
	}
	for _, r := range projected.rows {
		out.rows = append(out.rows, Row{ID: next, Values: r.Values})
		next++
	}
	return out, nil
}

func (t *Table) emptyCopy() *Table {
	return &Table{columns: t.columns, index: t.index}
}

func (t *Table) subset(rows []Row) *Table {
	out := t.emptyCopy()
	out.rows = rows
	return out
}
