package engine

import (
	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"

	"github.com/Acteus/Base-ML-Platform/dataset"
)

// Environment is the set of name bindings visible to a running script: the
// dataset under a fixed name plus the library aliases. An Environment is
// built once by the caller and handed to Run; the engine only ever reads
// from it, executing against a private copy, so one Environment can back
// any number of sequential or concurrent runs.
type Environment struct {
	datasetName string
	bindings    starlark.StringDict
}

// NewEnvironment creates an Environment exposing the dataset under
// datasetName alongside the standard library aliases: math, json, plot and
// table, plus the capability deny stubs.
func NewEnvironment(datasetName string, ds *dataset.Table) *Environment {
	env := &Environment{
		datasetName: datasetName,
		bindings:    starlark.StringDict{},
	}
	if ds != nil {
		env.bindings[datasetName] = NewTableValue(ds)
	}

	env.bindings["math"] = starlarkmath.Module
	env.bindings["json"] = starlarkjson.Module
	env.bindings["plot"] = PlotModule()
	env.bindings["table"] = TableModule()

	// Capabilities the sandbox refuses by construction. Binding explicit
	// stubs (rather than leaving the names undefined) lets a run report
	// PermissionDenied with the offending capability name.
	for _, capability := range []string{"open", "read_file", "write_file", "fetch"} {
		env.bindings[capability] = denyBuiltin(capability)
	}

	for _, v := range env.bindings {
		v.Freeze()
	}
	return env
}

// Set adds or replaces a binding. The value is frozen, since it may be
// shared across concurrent runs.
func (e *Environment) Set(name string, v starlark.Value) {
	v.Freeze()
	e.bindings[name] = v
}

// Has reports whether name is bound.
func (e *Environment) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// DatasetName returns the name the dataset is bound under.
func (e *Environment) DatasetName() string {
	return e.datasetName
}

// snapshot returns a private copy of the bindings for one run. The values
// themselves are frozen, so sharing them is safe.
func (e *Environment) snapshot() starlark.StringDict {
	out := make(starlark.StringDict, len(e.bindings))
	for name, v := range e.bindings {
		out[name] = v
	}
	return out
}

// denyBuiltin returns a builtin that always fails with a PermissionError
// naming the capability.
func denyBuiltin(capability string) *starlark.Builtin {
	return starlark.NewBuiltin(capability, func(_ *starlark.Thread, b *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
		return nil, &PermissionError{Capability: b.Name()}
	})
}
