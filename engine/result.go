package engine

import (
	"fmt"
	"time"

	"github.com/Acteus/Base-ML-Platform/dataset"
)

// Status reports whether a run completed.
type Status string

// Run statuses.
const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ErrorKind is the failure taxonomy exposed to callers.
type ErrorKind string

// Failure kinds.
const (
	KindSyntaxError      ErrorKind = "SyntaxError"
	KindRuntimeError     ErrorKind = "RuntimeError"
	KindTimeout          ErrorKind = "Timeout"
	KindPermissionDenied ErrorKind = "PermissionDenied"
	KindUnknown          ErrorKind = "Unknown"
)

// RunError describes why a run failed. Traceback, when present, covers the
// script's own frames only.
type RunError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Traceback string    `json:"traceback,omitempty"`
}

// Variable is a script-produced value that is neither a table nor a
// figure, converted to a plain Go representation.
type Variable struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// NamedTable is a tabular value produced by a run, keyed by the variable
// name it was bound to.
type NamedTable struct {
	Name  string         `json:"name"`
	Table *dataset.Table `json:"table"`
}

// NamedFigure is a figure value produced by a run, keyed by the variable
// name it was bound to.
type NamedFigure struct {
	Name   string  `json:"name"`
	Figure *Figure `json:"figure"`
}

// Result is the outcome of one run. It is created once when the run
// finishes and never modified afterwards; the engine retains no reference
// to it.
type Result struct {
	RunID     string        `json:"run_id"`
	Status    Status        `json:"status"`
	Stdout    string        `json:"stdout"`
	Variables []Variable    `json:"variables"`
	Tables    []NamedTable  `json:"tables"`
	Figures   []NamedFigure `json:"figures"`
	Err       *RunError     `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Variable looks up a produced variable by name.
func (r *Result) Variable(name string) (Variable, bool) {
	for _, v := range r.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// PermissionError reports an attempt to use a capability withheld from the
// sandbox, naming the capability.
type PermissionError struct {
	Capability string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s is not available in the sandbox", e.Capability)
}
