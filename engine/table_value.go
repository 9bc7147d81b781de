package engine

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/Acteus/Base-ML-Platform/dataset"
)

// TableValue adapts a dataset.Table for use inside scripts. The underlying
// table is immutable, so the adapter is safe to share between runs.
type TableValue struct {
	table *dataset.Table
}

// NewTableValue wraps a table as a script value.
func NewTableValue(t *dataset.Table) *TableValue {
	return &TableValue{table: t}
}

// Table returns the wrapped table.
func (v *TableValue) Table() *dataset.Table { return v.table }

func (v *TableValue) String() string {
	return fmt.Sprintf("<table %dx%d>", v.table.NumRows(), v.table.NumCols())
}

func (v *TableValue) Type() string          { return "table" }
func (v *TableValue) Freeze()               {}
func (v *TableValue) Truth() starlark.Bool  { return v.table.NumRows() > 0 }
func (v *TableValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }

var tableAttrNames = []string{
	"column", "columns", "describe", "head", "num_cols", "num_rows", "select", "shape", "tail",
}

// AttrNames lists the attributes available on a table value.
func (v *TableValue) AttrNames() []string { return tableAttrNames }

// Attr resolves table attributes and methods.
func (v *TableValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "shape":
		return starlark.Tuple{
			starlark.MakeInt(v.table.NumRows()),
			starlark.MakeInt(v.table.NumCols()),
		}, nil
	case "columns":
		cols := make([]starlark.Value, 0, v.table.NumCols())
		for _, c := range v.table.Columns() {
			cols = append(cols, starlark.String(c))
		}
		return starlark.NewList(cols), nil
	case "num_rows":
		return starlark.MakeInt(v.table.NumRows()), nil
	case "num_cols":
		return starlark.MakeInt(v.table.NumCols()), nil
	case "head":
		return starlark.NewBuiltin("head", tableHead).BindReceiver(v), nil
	case "tail":
		return starlark.NewBuiltin("tail", tableTail).BindReceiver(v), nil
	case "column":
		return starlark.NewBuiltin("column", tableColumn).BindReceiver(v), nil
	case "describe":
		return starlark.NewBuiltin("describe", tableDescribe).BindReceiver(v), nil
	case "select":
		return starlark.NewBuiltin("select", tableSelect).BindReceiver(v), nil
	}
	return nil, nil
}

func tableHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	recv := b.Receiver().(*TableValue)
	return NewTableValue(recv.table.Head(n)), nil
}

func tableTail(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	recv := b.Receiver().(*TableValue)
	return NewTableValue(recv.table.Tail(n)), nil
}

func tableColumn(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	recv := b.Receiver().(*TableValue)
	values, ok := recv.table.Column(name)
	if !ok {
		return nil, fmt.Errorf("column: unknown column %q", name)
	}
	out := make([]starlark.Value, 0, len(values))
	for _, v := range values {
		out = append(out, cellToStarlark(v))
	}
	return starlark.NewList(out), nil
}

func tableDescribe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	recv := b.Receiver().(*TableValue)
	return NewTableValue(recv.table.Describe()), nil
}

func tableSelect(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var cols starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &cols); err != nil {
		return nil, err
	}
	names, err := stringSlice(cols)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	recv := b.Receiver().(*TableValue)
	selected, err := recv.table.Select(names)
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return NewTableValue(selected), nil
}

// TableModule returns the `table` library alias, used by scripts to build
// new tabular results.
func TableModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "table",
		Members: starlark.StringDict{
			"new": starlark.NewBuiltin("table.new", tableNew),
		},
	}
}

// tableNew builds a table from a dict of column name to list of values:
// table.new({"a": [1, 2], "b": ["x", "y"]}).
func tableNew(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var spec *starlark.Dict
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "columns", &spec); err != nil {
		return nil, err
	}

	var columns []string
	var cells [][]any
	for _, item := range spec.Items() {
		name, ok := starlark.AsString(item[0])
		if !ok {
			return nil, fmt.Errorf("table.new: column name must be a string, got %s", item[0].Type())
		}
		iter := starlark.Iterate(item[1])
		if iter == nil {
			return nil, fmt.Errorf("table.new: column %q must be iterable", name)
		}
		var col []any
		var x starlark.Value
		for iter.Next(&x) {
			cell, err := starlarkToCell(x)
			if err != nil {
				iter.Done()
				return nil, fmt.Errorf("table.new: column %q: %w", name, err)
			}
			col = append(col, cell)
		}
		iter.Done()
		columns = append(columns, name)
		cells = append(cells, col)
	}

	tbl, err := dataset.New(columns, cells)
	if err != nil {
		return nil, fmt.Errorf("table.new: %w", err)
	}
	return NewTableValue(tbl), nil
}

// cellToStarlark converts a table cell to a script value.
func cellToStarlark(v any) starlark.Value {
	switch c := v.(type) {
	case nil:
		return starlark.None
	case bool:
		return starlark.Bool(c)
	case int64:
		return starlark.MakeInt64(c)
	case float64:
		return starlark.Float(c)
	case string:
		return starlark.String(c)
	default:
		return starlark.String(fmt.Sprint(c))
	}
}

// starlarkToCell converts a script value to a table cell.
func starlarkToCell(v starlark.Value) (any, error) {
	switch c := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(c), nil
	case starlark.Int:
		if i, ok := c.Int64(); ok {
			return i, nil
		}
		return nil, fmt.Errorf("integer too large for a cell: %s", c.String())
	case starlark.Float:
		return float64(c), nil
	case starlark.String:
		return string(c), nil
	default:
		return nil, fmt.Errorf("unsupported cell type: %s", v.Type())
	}
}

// stringSlice converts an iterable of strings.
func stringSlice(v starlark.Value) ([]string, error) {
	iter := starlark.Iterate(v)
	if iter == nil {
		return nil, fmt.Errorf("expected an iterable of strings, got %s", v.Type())
	}
	defer iter.Done()

	var out []string
	var x starlark.Value
	for iter.Next(&x) {
		s, ok := starlark.AsString(x)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %s", x.Type())
		}
		out = append(out, s)
	}
	return out, nil
}
