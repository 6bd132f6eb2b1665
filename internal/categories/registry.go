// Package categories holds the valid subcategories per entry class.
package categories

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"networth/internal/core"
)

var defaults = map[core.Class][]string{
	core.Asset: {
		"Cash", "Savings", "Stocks", "Cryptocurrency", "Bonds", "Mutual Funds",
		"Real Estate", "Vehicles", "Personal Property", "Retirement Accounts",
		"Business Interests", "Mortgage", "Other",
	},
	core.Liability: {
		"Credit Card Debt", "Student Loans", "Motor Loans", "Personal Loans",
		"Mortgage", "Other",
	},
	core.CashFlow: {
		"Rent Income", "Savings Interest", "Dividends", "Salary",
		"Business Income", "Other",
	},
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	lists map[core.Class][]string
}

// Default returns the built-in registry.
func Default() *Registry {
	r := &Registry{lists: make(map[core.Class][]string, len(defaults))}
	for c, l := range defaults {
		r.lists[c] = slices.Clone(l)
	}
	return r
}

// file is the YAML layout of a categories override file:
//
//	asset: [Cash, Stocks]
//	liability: [Mortgage]
//	cash-flow: [Salary]
type file map[string][]string

// Load returns the default registry with the classes listed in path replaced.
// An empty path returns the defaults.
func Load(path string) (*Registry, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	if err := r.apply(b); err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	return r, nil
}

func (r *Registry) apply(b []byte) error {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	for key, names := range f {
		class, err := core.ParseClass(key)
		if err != nil {
			return err
		}
		list := make([]string, 0, len(names))
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" || slices.Contains(list, n) {
				continue
			}
			list = append(list, n)
		}
		if len(list) == 0 {
			return fmt.Errorf("class %s has no subcategories", class)
		}
		r.lists[class] = list
	}
	return nil
}

// Subcategories returns a copy of the list for class, nil for unknown classes.
func (r *Registry) Subcategories(class core.Class) []string {
	return slices.Clone(r.lists[class])
}

// All returns a copy of every list keyed by class.
func (r *Registry) All() map[core.Class][]string {
	out := make(map[core.Class][]string, len(r.lists))
	for c, l := range r.lists {
		out[c] = slices.Clone(l)
	}
	return out
}

// Contains reports whether name is a valid subcategory of class. Matching is exact.
func (r *Registry) Contains(class core.Class, name string) bool {
	return slices.Contains(r.lists[class], name)
}

// Check returns a *core.ValidationError when name is not valid for class.
func (r *Registry) Check(class core.Class, name string) error {
	if !class.IsValid() {
		return &core.ValidationError{Field: "class", Reason: fmt.Sprintf("unknown class %q", class)}
	}
	if strings.TrimSpace(name) == "" {
		return &core.ValidationError{Field: "subcategory", Reason: "required"}
	}
	if !r.Contains(class, name) {
		return &core.ValidationError{Field: "subcategory", Reason: fmt.Sprintf("%q is not a valid %s subcategory", name, class)}
	}
	return nil
}
