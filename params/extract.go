package params

import (
	"regexp"
	"strconv"
	"strings"
)

// Span is a half-open byte range [Start, End) within the script text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Binding is one recognized tunable parameter: a top-level assignment of a
// bare numeric literal to a cataloged identifier. Span covers exactly the
// literal text, so replacing it leaves every other byte of the script
// unchanged.
type Binding struct {
	Name       string   `json:"name"`
	RawLiteral string   `json:"raw_literal"`
	Value      float64  `json:"value"`
	IsInt      bool     `json:"is_int"`
	Category   Category `json:"category"`
	Line       int      `json:"line"`
	Span       Span     `json:"span"`
}

// assignPattern matches `identifier = <numeric literal>` at column zero,
// with an optional trailing comment. Assignments inside indented blocks are
// deliberately not matched: a conditional or loop body can assign the same
// name on several paths, which has no single authoritative literal. This
// choice is applied consistently by Extract and ApplyEdit.
var assignPattern = regexp.MustCompile(
	`^([A-Za-z_][A-Za-z0-9_]*)([ \t]*=[ \t]*)([+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)[ \t]*(?:#.*)?$`,
)

// Extract scans script text for tunable numeric parameters matching the
// catalog. Bindings are returned in first-encounter order; when the same
// identifier is assigned more than once, the last assignment is
// authoritative and the binding's span points at that occurrence.
func Extract(script string, cat *Catalog) []Binding {
	var out []Binding
	index := make(map[string]int)

	for _, b := range scanAssignments(script) {
		category, ok := cat.Categorize(b.Name)
		if !ok {
			continue
		}
		b.Category = category
		if i, seen := index[b.Name]; seen {
			out[i] = b
			continue
		}
		index[b.Name] = len(out)
		out = append(out, b)
	}

	return out
}

// scanAssignments finds every top-level numeric-literal assignment,
// uncategorized, in script order. Repeated names produce repeated entries.
func scanAssignments(script string) []Binding {
	var out []Binding
	offset := 0
	for lineNum, line := range strings.Split(script, "\n") {
		lineLen := len(line)
		// Tolerate CRLF input; the literal itself never contains \r.
		trimmed := strings.TrimSuffix(line, "\r")

		m := assignPattern.FindStringSubmatchIndex(trimmed)
		if m != nil {
			name := trimmed[m[2]:m[3]]
			raw := trimmed[m[6]:m[7]]
			if value, err := strconv.ParseFloat(raw, 64); err == nil {
				out = append(out, Binding{
					Name:       name,
					RawLiteral: raw,
					Value:      value,
					IsInt:      !strings.ContainsAny(raw, ".eE"),
					Line:       lineNum + 1,
					Span:       Span{Start: offset + m[6], End: offset + m[7]},
				})
			}
		}

		offset += lineLen + 1 // +1 for the split '\n'
	}
	return out
}
