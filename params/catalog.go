package params

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category classifies a recognized parameter and drives the default
// bounds and step of the control presented for it.
type Category string

// Parameter categories.
const (
	CategoryRate  Category = "rate"
	CategoryCount Category = "count"
	CategoryLimit Category = "limit"
	CategoryRatio Category = "ratio"
	CategoryOther Category = "other"
)

// Rule maps identifier-name patterns to a category. A name matches a rule
// if it equals one of Names, or carries one of Prefixes/Suffixes, or
// contains one of Contains. Matching is case-insensitive.
type Rule struct {
	Category Category `yaml:"category"`
	Names    []string `yaml:"names,omitempty"`
	Prefixes []string `yaml:"prefixes,omitempty"`
	Suffixes []string `yaml:"suffixes,omitempty"`
	Contains []string `yaml:"contains,omitempty"`
}

// Catalog is an ordered list of rules; the first matching rule wins.
// The catalog is configuration data, not logic: new parameter-name
// heuristics are added by editing the catalog, not the extractor.
type Catalog struct {
	Rules []Rule `yaml:"rules"`
}

// Match reports whether name matches the rule. Single-letter exact names
// (like the SVM regularization C) compare case-sensitively, so a stray loop
// counter does not read as a hyperparameter; everything else is
// case-insensitive.
func (r *Rule) Match(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range r.Names {
		if len(n) == 1 {
			if name == n {
				return true
			}
			continue
		}
		if lower == strings.ToLower(n) {
			return true
		}
	}
	for _, p := range r.Prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	for _, s := range r.Suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	for _, c := range r.Contains {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// Categorize returns the category of the first rule matching name.
func (c *Catalog) Categorize(name string) (Category, bool) {
	for i := range c.Rules {
		if c.Rules[i].Match(name) {
			return c.Rules[i].Category, true
		}
	}
	return "", false
}

// LoadCatalog reads a rule catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses a YAML rule catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("malformed parameter catalog: %w", err)
	}
	if err := cat.validate(); err != nil {
		return nil, fmt.Errorf("invalid parameter catalog: %w", err)
	}
	return &cat, nil
}

func (c *Catalog) validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("catalog has no rules")
	}
	valid := map[Category]bool{
		CategoryRate:  true,
		CategoryCount: true,
		CategoryLimit: true,
		CategoryRatio: true,
		CategoryOther: true,
	}
	for i, r := range c.Rules {
		if !valid[r.Category] {
			return fmt.Errorf("rule %d: unknown category %q", i, r.Category)
		}
		if len(r.Names)+len(r.Prefixes)+len(r.Suffixes)+len(r.Contains) == 0 {
			return fmt.Errorf("rule %d: no patterns", i)
		}
	}
	return nil
}

// DefaultCatalog returns the built-in rule set covering common machine
// learning hyperparameter names. Rule order matters: ratio-style names are
// checked before the generic count suffixes so that test_size is a ratio,
// not a count.
func DefaultCatalog() *Catalog {
	return &Catalog{Rules: []Rule{
		{
			Category: CategoryRate,
			Names: []string{
				"alpha", "beta", "gamma", "epsilon", "lambda", "eta",
				"momentum", "decay", "dropout", "tolerance", "threshold", "C",
			},
			Suffixes: []string{"_rate", "_decay", "_momentum", "_alpha", "_eta"},
		},
		{
			Category: CategoryRatio,
			Names:    []string{"test_size", "train_size", "validation_size", "split_ratio", "ratio"},
			Suffixes: []string{"_ratio", "_fraction", "_split"},
		},
		{
			Category: CategoryLimit,
			Prefixes: []string{"max_", "min_"},
		},
		{
			Category: CategoryCount,
			Names: []string{
				"epochs", "epoch", "iterations", "iteration", "batch_size",
				"hidden_size", "num_layers", "k", "degree", "random_state", "seed",
			},
			Prefixes: []string{"n_", "num_"},
			Suffixes: []string{"_size", "_count", "_num", "_iters", "_steps"},
		},
		{
			Category: CategoryOther,
			Suffixes: []string{"_factor", "_weight", "_scale"},
		},
	}}
}
