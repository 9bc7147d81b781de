package dataset

import (
	"encoding/json"
	"fmt"
	"math"
)

// Table is an immutable 2-D tabular structure: rows by named columns.
// Cell values are nil, bool, int64, float64 or string. A Table is never
// mutated after construction, so it can be shared freely across concurrent
// runs.
type Table struct {
	columns []string
	cells   [][]any // column-major: cells[i] holds the values of columns[i]
}

// New creates a Table from column names and column-major cell data.
// All columns must have the same length and column names must be unique.
func New(columns []string, cells [][]any) (*Table, error) {
	if len(columns) != len(cells) {
		return nil, fmt.Errorf("mismatched table shape: %d column names, %d columns of data", len(columns), len(cells))
	}

	seen := make(map[string]bool, len(columns))
	for _, name := range columns {
		if name == "" {
			return nil, fmt.Errorf("empty column name")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column name: %s", name)
		}
		seen[name] = true
	}

	rows := 0
	if len(cells) > 0 {
		rows = len(cells[0])
	}
	for i, col := range cells {
		if len(col) != rows {
			return nil, fmt.Errorf("ragged column %q: %d values, expected %d", columns[i], len(col), rows)
		}
	}

	return &Table{columns: append([]string(nil), columns...), cells: cells}, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.cells) == 0 {
		return 0
	}
	return len(t.cells[0])
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	for i, col := range t.columns {
		if col == name {
			return append([]any(nil), t.cells[i]...), true
		}
	}
	return nil, false
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) ([]any, error) {
	if i < 0 || i >= t.NumRows() {
		return nil, fmt.Errorf("row index %d out of range [0,%d)", i, t.NumRows())
	}
	row := make([]any, len(t.columns))
	for c := range t.columns {
		row[c] = t.cells[c][i]
	}
	return row, nil
}

// Head returns a new Table with the first n rows (fewer if the table is
// shorter). A non-positive n yields an empty table.
func (t *Table) Head(n int) *Table {
	return t.slice(0, n)
}

// Tail returns a new Table with the last n rows.
func (t *Table) Tail(n int) *Table {
	if n < 0 {
		n = 0
	}
	start := t.NumRows() - n
	if start < 0 {
		start = 0
	}
	return t.slice(start, t.NumRows()-start)
}

func (t *Table) slice(start, n int) *Table {
	if n < 0 {
		n = 0
	}
	end := start + n
	if end > t.NumRows() {
		end = t.NumRows()
	}
	if start > end {
		start = end
	}
	cells := make([][]any, len(t.cells))
	for i, col := range t.cells {
		cells[i] = append([]any(nil), col[start:end]...)
	}
	return &Table{columns: append([]string(nil), t.columns...), cells: cells}
}

// Select returns a new Table restricted to the named columns, in the
// requested order.
func (t *Table) Select(names []string) (*Table, error) {
	cells := make([][]any, 0, len(names))
	cols := make([]string, 0, len(names))
	for _, name := range names {
		idx := -1
		for i, col := range t.columns {
			if col == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("unknown column: %s", name)
		}
		cols = append(cols, name)
		cells = append(cells, append([]any(nil), t.cells[idx]...))
	}
	return New(cols, cells)
}

// Describe returns summary statistics as a new Table with one row per
// column: count, nulls, and for numeric columns mean, min and max.
func (t *Table) Describe() *Table {
	names := make([]any, 0, len(t.columns))
	counts := make([]any, 0, len(t.columns))
	nulls := make([]any, 0, len(t.columns))
	means := make([]any, 0, len(t.columns))
	mins := make([]any, 0, len(t.columns))
	maxs := make([]any, 0, len(t.columns))

	for i, col := range t.columns {
		var (
			numSum   float64
			numCount int
			numMin   = math.Inf(1)
			numMax   = math.Inf(-1)
			nullN    int
		)
		for _, v := range t.cells[i] {
			if v == nil {
				nullN++
				continue
			}
			if f, ok := asFloat(v); ok {
				numSum += f
				numCount++
				if f < numMin {
					numMin = f
				}
				if f > numMax {
					numMax = f
				}
			}
		}

		names = append(names, col)
		counts = append(counts, int64(len(t.cells[i])-nullN))
		nulls = append(nulls, int64(nullN))
		if numCount > 0 {
			means = append(means, numSum/float64(numCount))
			mins = append(mins, numMin)
			maxs = append(maxs, numMax)
		} else {
			means = append(means, nil)
			mins = append(mins, nil)
			maxs = append(maxs, nil)
		}
	}

	out, _ := New(
		[]string{"column", "count", "nulls", "mean", "min", "max"},
		[][]any{names, counts, nulls, means, mins, maxs},
	)
	return out
}

// MarshalJSON renders the table as its column names plus row-major data,
// the shape the presentation layer consumes.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := make([][]any, t.NumRows())
	for i := range rows {
		row, err := t.Row(i)
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return json.Marshal(struct {
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}{t.Columns(), rows})
}

// asFloat reports the numeric value of a cell, if it has one.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
