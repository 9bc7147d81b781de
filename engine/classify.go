package engine

import (
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// classifyGlobals partitions the script's final bindings into tables,
// figures and plain variables. Classification is structural: it inspects
// the value's shape, never its name. Results follow the script's top-level
// binding order; names bound in ways the order scan cannot see come last,
// sorted.
func classifyGlobals(globals starlark.StringDict, order []string) ([]NamedTable, []NamedFigure, []Variable) {
	var tables []NamedTable
	var figures []NamedFigure
	var variables []Variable

	seen := make(map[string]bool, len(globals))
	ordered := make([]string, 0, len(globals))
	for _, name := range order {
		if _, ok := globals[name]; ok && !seen[name] {
			seen[name] = true
			ordered = append(ordered, name)
		}
	}
	var rest []string
	for name := range globals {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	ordered = append(ordered, rest...)

	for _, name := range ordered {
		switch v := globals[name].(type) {
		case *TableValue:
			tables = append(tables, NamedTable{Name: name, Table: v.Table()})
		case *Figure:
			figures = append(figures, NamedFigure{Name: name, Figure: v})
		default:
			variables = append(variables, Variable{
				Name:  name,
				Type:  v.Type(),
				Value: starlarkToGo(v),
			})
		}
	}

	return tables, figures, variables
}

// bindingOrder returns the names bound by top-level statements in source
// order, first occurrence only.
func bindingOrder(file *syntax.File) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	var fromExpr func(expr syntax.Expr)
	fromExpr = func(expr syntax.Expr) {
		switch e := expr.(type) {
		case *syntax.Ident:
			add(e.Name)
		case *syntax.TupleExpr:
			for _, elem := range e.List {
				fromExpr(elem)
			}
		case *syntax.ListExpr:
			for _, elem := range e.List {
				fromExpr(elem)
			}
		case *syntax.ParenExpr:
			fromExpr(e.X)
		}
	}

	var fromStmt func(stmt syntax.Stmt)
	fromStmt = func(stmt syntax.Stmt) {
		switch s := stmt.(type) {
		case *syntax.AssignStmt:
			fromExpr(s.LHS)
		case *syntax.DefStmt:
			add(s.Name.Name)
		case *syntax.ForStmt:
			fromExpr(s.Vars)
			for _, body := range s.Body {
				fromStmt(body)
			}
		case *syntax.WhileStmt:
			for _, body := range s.Body {
				fromStmt(body)
			}
		case *syntax.IfStmt:
			for _, body := range s.True {
				fromStmt(body)
			}
			for _, body := range s.False {
				fromStmt(body)
			}
		}
	}

	for _, stmt := range file.Stmts {
		fromStmt(stmt)
	}
	return order
}

// starlarkToGo converts a script value to a plain Go representation for
// the Result. Unconvertible values fall back to their display string.
func starlarkToGo(v starlark.Value) any {
	switch c := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(c)
	case starlark.Int:
		if i, ok := c.Int64(); ok {
			return i
		}
		return c.String()
	case starlark.Float:
		return float64(c)
	case starlark.String:
		return string(c)
	case *starlark.Dict:
		out := make(map[string]any, c.Len())
		for _, item := range c.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			out[key] = starlarkToGo(item[1])
		}
		return out
	}

	if iter := starlark.Iterate(v); iter != nil {
		defer iter.Done()
		out := []any{}
		var x starlark.Value
		for iter.Next(&x) {
			out = append(out, starlarkToGo(x))
		}
		return out
	}

	return v.String()
}
