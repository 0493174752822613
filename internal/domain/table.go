package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Column is a named sequence of cells.
type Column struct {
	Name   string
	Values []Value
}

// Table is a tabular artifact: ordered, named columns of equal length.
type Table struct {
	Columns []Column
}

// NewTable builds a table from columns and validates its shape.
func NewTable(columns ...Column) (*Table, error) {
	t := &Table{Columns: columns}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// NewTableFromRows builds a table from a header and row-major cells.
func NewTableFromRows(header []string, rows [][]Value) (*Table, error) {
	cols := make([]Column, len(header))
	for j, name := range header {
		cols[j] = Column{Name: name, Values: make([]Value, 0, len(rows))}
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, NewCellError(ErrMalformedArtifact, "", "", i,
				fmt.Errorf("row has %d cells, header has %d", len(row), len(header)))
		}
		for j, v := range row {
			cols[j].Values = append(cols[j].Values, v)
		}
	}
	return NewTable(cols...)
}

// Validate checks that column names are present and unique, that every column
// has the same length and that every cell has a supported kind.
func (t *Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Columns))
	rows := t.NumRows()
	for _, c := range t.Columns {
		if c.Name == "" {
			return NewCellError(ErrMalformedArtifact, "", "", -1, errors.New("empty column name"))
		}
		if _, dup := seen[c.Name]; dup {
			return NewCellError(ErrMalformedArtifact, "", c.Name, -1, errors.New("duplicate column name"))
		}
		seen[c.Name] = struct{}{}
		if len(c.Values) != rows {
			return NewCellError(ErrMalformedArtifact, "", c.Name, -1,
				fmt.Errorf("column has %d values, expected %d", len(c.Values), rows))
		}
		for i, v := range c.Values {
			if v.Kind() == KindInvalid {
				return NewCellError(ErrMalformedArtifact, "", c.Name, i, errors.New("unsupported value type"))
			}
		}
	}
	return nil
}

// NumRows returns the length of the first column, or 0 for a table without columns.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// SortedRows returns a copy of the table with rows in a canonical order so
// that tables holding the same records in different orders compare equal.
// order[i] is the index in t of the copy's row i.
func (t *Table) SortedRows() (sorted *Table, order []int) {
	n := t.NumRows()
	order = make([]int, n)
	keys := make([]string, n)
	for i := range order {
		order[i] = i
		keys[i] = rowKey(t.Row(i))
	}
	sort.SliceStable(order, func(a, b int) bool { return keys[order[a]] < keys[order[b]] })

	out := &Table{Columns: make([]Column, len(t.Columns))}
	for j, c := range t.Columns {
		vals := make([]Value, n)
		for i, src := range order {
			vals[i] = c.Values[src]
		}
		out.Columns[j] = Column{Name: c.Name, Values: vals}
	}
	return out, order
}

func rowKey(row []Value) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = v.Kind().String() + ":" + v.String()
	}
	return strings.Join(parts, "\x1f")
}
