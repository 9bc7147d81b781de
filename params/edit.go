package params

import (
	"fmt"
	"math"
	"strconv"
)

// ApplyEdit returns a new script with the numeric literal of binding's
// identifier replaced by value. Every other byte of the script is
// preserved, including whitespace and comments. The input script is never
// modified.
//
// The substitution targets the current last top-level assignment of the
// identifier, located by re-scanning the given script rather than trusting
// the binding's recorded span: this keeps the operation correct when
// earlier edits shifted offsets, and makes applying the same edit twice a
// no-op on the second application.
func ApplyEdit(script string, b Binding, value float64) (string, error) {
	var target *Binding
	for _, cand := range scanAssignments(script) {
		if cand.Name == b.Name {
			c := cand
			target = &c
		}
	}
	if target == nil {
		return "", fmt.Errorf("no editable numeric assignment for %q", b.Name)
	}

	literal := FormatValue(value, b.IsInt)
	return script[:target.Span.Start] + literal + script[target.Span.End:], nil
}

// FormatValue renders a parameter value as script literal text. Values for
// integer-typed bindings that carry no fractional part are written without
// a decimal point.
func FormatValue(value float64, isInt bool) string {
	if isInt && value == math.Trunc(value) && !math.IsInf(value, 0) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'g', -1, 64)
}
