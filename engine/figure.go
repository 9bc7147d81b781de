package engine

import (
	"encoding/json"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// FigureKind identifies the kind of plot a figure describes.
const (
	FigureLine      = "line"
	FigureScatter   = "scatter"
	FigureBar       = "bar"
	FigureHistogram = "hist"
)

// Figure is an inert description of a plot produced by a script: the kind,
// an optional title and the data series. Rendering is the presentation
// layer's concern; the engine only creates and classifies figures.
type Figure struct {
	kind   string
	title  string
	x, y   []float64
	labels []string
	bins   int
}

// Kind returns the figure kind.
func (f *Figure) Kind() string { return f.kind }

// Title returns the figure title, which may be empty.
func (f *Figure) Title() string { return f.title }

// X returns the x series (or the raw values for a histogram).
func (f *Figure) X() []float64 { return append([]float64(nil), f.x...) }

// Y returns the y series.
func (f *Figure) Y() []float64 { return append([]float64(nil), f.y...) }

// Labels returns the category labels of a bar figure.
func (f *Figure) Labels() []string { return append([]string(nil), f.labels...) }

// Bins returns the bin count of a histogram figure.
func (f *Figure) Bins() int { return f.bins }

// MarshalJSON renders the figure for the presentation layer.
func (f *Figure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string    `json:"kind"`
		Title  string    `json:"title,omitempty"`
		X      []float64 `json:"x,omitempty"`
		Y      []float64 `json:"y,omitempty"`
		Labels []string  `json:"labels,omitempty"`
		Bins   int       `json:"bins,omitempty"`
	}{f.kind, f.title, f.x, f.y, f.labels, f.bins})
}

func (f *Figure) String() string {
	if f.title != "" {
		return fmt.Sprintf("<figure %s %q>", f.kind, f.title)
	}
	return fmt.Sprintf("<figure %s>", f.kind)
}

func (f *Figure) Type() string          { return "figure" }
func (f *Figure) Freeze()               {}
func (f *Figure) Truth() starlark.Bool  { return starlark.True }
func (f *Figure) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure") }

// AttrNames lists the attributes available on a figure value.
func (f *Figure) AttrNames() []string { return []string{"kind", "title"} }

// Attr resolves figure attributes.
func (f *Figure) Attr(name string) (starlark.Value, error) {
	switch name {
	case "kind":
		return starlark.String(f.kind), nil
	case "title":
		return starlark.String(f.title), nil
	}
	return nil, nil
}

// PlotModule returns the `plot` library alias exposed to scripts.
func PlotModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "plot",
		Members: starlark.StringDict{
			"line":    starlark.NewBuiltin("plot.line", plotXY(FigureLine)),
			"scatter": starlark.NewBuiltin("plot.scatter", plotXY(FigureScatter)),
			"bar":     starlark.NewBuiltin("plot.bar", plotBar),
			"hist":    starlark.NewBuiltin("plot.hist", plotHist),
		},
	}
}

func plotXY(kind string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var xv, yv starlark.Value
		var title string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &xv, "y", &yv, "title?", &title); err != nil {
			return nil, err
		}
		x, err := floatSlice(xv)
		if err != nil {
			return nil, fmt.Errorf("%s: x: %w", b.Name(), err)
		}
		y, err := floatSlice(yv)
		if err != nil {
			return nil, fmt.Errorf("%s: y: %w", b.Name(), err)
		}
		if len(x) != len(y) {
			return nil, fmt.Errorf("%s: x and y lengths differ: %d vs %d", b.Name(), len(x), len(y))
		}
		return &Figure{kind: kind, title: title, x: x, y: y}, nil
	}
}

func plotBar(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var labelsV, valuesV starlark.Value
	var title string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "labels", &labelsV, "values", &valuesV, "title?", &title); err != nil {
		return nil, err
	}
	labels, err := stringSlice(labelsV)
	if err != nil {
		return nil, fmt.Errorf("plot.bar: labels: %w", err)
	}
	values, err := floatSlice(valuesV)
	if err != nil {
		return nil, fmt.Errorf("plot.bar: values: %w", err)
	}
	if len(labels) != len(values) {
		return nil, fmt.Errorf("plot.bar: labels and values lengths differ: %d vs %d", len(labels), len(values))
	}
	return &Figure{kind: FigureBar, title: title, labels: labels, y: values}, nil
}

func plotHist(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var valuesV starlark.Value
	bins := 10
	var title string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "values", &valuesV, "bins?", &bins, "title?", &title); err != nil {
		return nil, err
	}
	values, err := floatSlice(valuesV)
	if err != nil {
		return nil, fmt.Errorf("plot.hist: values: %w", err)
	}
	if bins < 1 {
		return nil, fmt.Errorf("plot.hist: bins must be positive, got %d", bins)
	}
	return &Figure{kind: FigureHistogram, title: title, x: values, bins: bins}, nil
}

// floatSlice converts an iterable of numbers.
func floatSlice(v starlark.Value) ([]float64, error) {
	iter := starlark.Iterate(v)
	if iter == nil {
		return nil, fmt.Errorf("expected an iterable of numbers, got %s", v.Type())
	}
	defer iter.Done()

	var out []float64
	var x starlark.Value
	for iter.Next(&x) {
		f, ok := starlark.AsFloat(x)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %s", x.Type())
		}
		out = append(out, f)
	}
	return out, nil
}
