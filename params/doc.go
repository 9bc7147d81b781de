// Package params implements the tunable-parameter extractor.
//
// The params package statically scans script text for top-level
// assignments of numeric literals to identifiers that match a configurable
// pattern catalog (learning rates, cluster counts, split ratios and the
// like), producing one Binding per recognized parameter. A Binding carries
// the exact byte span of its literal so an edited value can be substituted
// back into the script without touching any other character.
//
// Extraction is pure text analysis: it never executes the script, and
// malformed or ambiguous lines simply produce no binding.
//
// Usage:
//
//	bindings := params.Extract(script, params.DefaultCatalog())
//	edited, err := params.ApplyEdit(script, bindings[0], 0.05)
package params
