package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"
)

// Format identifies the on-disk encoding of an uploaded dataset.
type Format string

// Supported dataset formats.
const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatJSONL   Format = "jsonl"
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatParquet Format = "parquet"
	FormatUnknown Format = "unknown"
)

// DetectFormat guesses the dataset format from a file name extension.
func DetectFormat(filename string) Format {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return FormatCSV
	case strings.HasSuffix(name, ".jsonl"):
		return FormatJSONL
	case strings.HasSuffix(name, ".json"):
		return FormatJSON
	case strings.HasSuffix(name, ".xlsx"):
		return FormatXLSX
	case strings.HasSuffix(name, ".xls"):
		return FormatXLS
	case strings.HasSuffix(name, ".parquet"):
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// Load parses raw file bytes into a Table. Malformed input yields a
// descriptive error, never a silently partial table.
func Load(data []byte, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return loadCSV(data)
	case FormatJSON:
		return loadJSON(data)
	case FormatJSONL:
		return loadJSONL(data)
	case FormatXLSX, FormatXLS:
		return loadExcel(data)
	case FormatParquet:
		return loadParquet(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", format)
	}
}

func loadCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV: no header row")
	}
	return tableFromRecords(records[0], records[1:])
}

func loadJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		// Fall back to JSONL: some tools emit one object per line under a
		// .json extension.
		if tbl, lerr := loadJSONL(data); lerr == nil {
			return tbl, nil
		}
		return nil, fmt.Errorf("malformed JSON: expected an array of objects: %w", err)
	}
	return tableFromObjects(raw)
}

func loadJSONL(data []byte) (*Table, error) {
	var objects []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("malformed JSONL at object %d: %w", len(objects)+1, err)
		}
		objects = append(objects, obj)
	}
	return tableFromObjects(objects)
}

func loadExcel(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("malformed Excel workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty: no header row", sheets[0])
	}

	// GetRows trims trailing empty cells per row; pad to header width.
	header := rows[0]
	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		for len(row) < len(header) {
			row = append(row, "")
		}
		records = append(records, row[:len(header)])
	}
	return tableFromRecords(header, records)
}

func loadParquet(data []byte) (*Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("malformed Parquet file: %w", err)
	}

	fields := f.Schema().Fields()
	columns := make([]string, len(fields))
	cells := make([][]any, len(fields))
	for i, field := range fields {
		columns[i] = field.Name()
		cells[i] = []any{}
	}

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 64)
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					c := v.Column()
					if c < 0 || c >= len(cells) {
						rows.Close()
						return nil, fmt.Errorf("unsupported Parquet schema: nested column layout")
					}
					cells[c] = append(cells[c], parquetValue(v))
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("reading Parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("closing Parquet row reader: %w", err)
		}
	}

	return New(columns, cells)
}

func parquetValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	default:
		return v.String()
	}
}

// tableFromRecords builds a Table from a header row and string records,
// inferring cell types per value.
func tableFromRecords(header []string, records [][]string) (*Table, error) {
	cells := make([][]any, len(header))
	for i := range cells {
		cells[i] = make([]any, 0, len(records))
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", r+1, len(rec), len(header))
		}
		for c, raw := range rec {
			cells[c] = append(cells[c], inferCell(raw))
		}
	}
	return New(header, cells)
}

// tableFromObjects builds a Table from decoded JSON objects. Column order
// follows first appearance; missing keys become nulls.
func tableFromObjects(objects []map[string]any) (*Table, error) {
	if len(objects) == 0 {
		return nil, fmt.Errorf("no records found")
	}

	var columns []string
	index := make(map[string]int)
	var cells [][]any

	for r, obj := range objects {
		for _, key := range sortedNewKeys(obj, index) {
			index[key] = len(columns)
			columns = append(columns, key)
			// Backfill nulls for rows that predate this column.
			col := make([]any, r)
			cells = append(cells, col)
		}
		for key, c := range index {
			v, ok := obj[key]
			if !ok {
				cells[c] = append(cells[c], nil)
				continue
			}
			cells[c] = append(cells[c], jsonCell(v))
		}
	}

	return New(columns, cells)
}

// sortedNewKeys returns the keys of obj not yet indexed, sorted for
// deterministic column order within one record.
func sortedNewKeys(obj map[string]any, index map[string]int) []string {
	var fresh []string
	for key := range obj {
		if _, ok := index[key]; !ok {
			fresh = append(fresh, key)
		}
	}
	for i := 1; i < len(fresh); i++ {
		for j := i; j > 0 && fresh[j] < fresh[j-1]; j-- {
			fresh[j], fresh[j-1] = fresh[j-1], fresh[j]
		}
	}
	return fresh
}

func jsonCell(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case bool:
		return n
	case string:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		// Nested arrays/objects are kept as their JSON text.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func inferCell(raw string) any {
	if raw == "" {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	switch raw {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	return raw
}
