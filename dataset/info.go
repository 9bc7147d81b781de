package dataset

// Info summarizes a loaded table for presentation: shape, per-column
// dtypes, null counts and a small sample of rows.
type Info struct {
	Rows       int              `json:"rows"`
	Cols       int              `json:"cols"`
	Columns    []string         `json:"columns"`
	Dtypes     map[string]string `json:"dtypes"`
	NullCounts map[string]int   `json:"null_counts"`
	Sample     []map[string]any `json:"sample"`
}

const sampleRows = 10

// Info returns summary information about the table.
func (t *Table) Info() Info {
	info := Info{
		Rows:       t.NumRows(),
		Cols:       t.NumCols(),
		Columns:    t.Columns(),
		Dtypes:     make(map[string]string, t.NumCols()),
		NullCounts: make(map[string]int, t.NumCols()),
	}

	for i, col := range t.columns {
		info.Dtypes[col] = dtype(t.cells[i])
		nulls := 0
		for _, v := range t.cells[i] {
			if v == nil {
				nulls++
			}
		}
		info.NullCounts[col] = nulls
	}

	n := t.NumRows()
	if n > sampleRows {
		n = sampleRows
	}
	info.Sample = make([]map[string]any, 0, n)
	for r := 0; r < n; r++ {
		row := make(map[string]any, t.NumCols())
		for c, col := range t.columns {
			row[col] = t.cells[c][r]
		}
		info.Sample = append(info.Sample, row)
	}

	return info
}

// dtype infers a column type name from its non-null values.
func dtype(values []any) string {
	kind := ""
	for _, v := range values {
		var k string
		switch v.(type) {
		case nil:
			continue
		case bool:
			k = "bool"
		case int64:
			k = "int"
		case float64:
			k = "float"
		case string:
			k = "string"
		default:
			k = "object"
		}
		switch {
		case kind == "":
			kind = k
		case kind == k:
		case (kind == "int" && k == "float") || (kind == "float" && k == "int"):
			kind = "float"
		default:
			return "mixed"
		}
	}
	if kind == "" {
		return "null"
	}
	return kind
}
