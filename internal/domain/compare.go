package domain

import "slices"

// CellDiff is one cell that differs between the actual and expected tables.
type CellDiff struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Actual   Value  `json:"-"`
	Expected Value  `json:"-"`
}

// TableDiff is the outcome of comparing two tables. Cells are only compared
// when both tables have the same columns in the same order and the same
// number of rows; otherwise Cells is empty and the shape fields explain why.
type TableDiff struct {
	ActualColumns   []string
	ExpectedColumns []string
	ActualRows      int
	ExpectedRows    int
	Cells           []CellDiff
}

// ColumnsMatch reports whether column names and order are identical.
func (d TableDiff) ColumnsMatch() bool {
	return slices.Equal(d.ActualColumns, d.ExpectedColumns)
}

// RowsMatch reports whether both tables have the same row count.
func (d TableDiff) RowsMatch() bool {
	return d.ActualRows == d.ExpectedRows
}

// Equal reports whether the tables are equivalent.
func (d TableDiff) Equal() bool {
	return d.ColumnsMatch() && d.RowsMatch() && len(d.Cells) == 0
}

// CompareTables compares two tables positionally, cell by cell. The result is
// symmetric: swapping the arguments swaps Actual and Expected in every field
// but yields the same set of differing positions.
func CompareTables(actual, expected *Table) TableDiff {
	d := TableDiff{
		ActualColumns:   actual.ColumnNames(),
		ExpectedColumns: expected.ColumnNames(),
		ActualRows:      actual.NumRows(),
		ExpectedRows:    expected.NumRows(),
	}
	if !d.ColumnsMatch() || !d.RowsMatch() {
		return d
	}

	for i := 0; i < d.ActualRows; i++ {
		for j, col := range actual.Columns {
			a := col.Values[i]
			e := expected.Columns[j].Values[i]
			if !a.Equal(e) {
				d.Cells = append(d.Cells, CellDiff{Row: i, Column: col.Name, Actual: a, Expected: e})
			}
		}
	}
	return d
}
