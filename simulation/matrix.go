package simulation

import (
	"strings"
)

// Category is one axis of a variant matrix, e.g. "overlap" with one option
// per overlap policy.
type Category struct {
	Name    string    `json:"category" yaml:"category"`
	Options []Variant `json:"options" yaml:"options"`
}

// Matrix builds the cartesian product of the categories' options. Each
// combined variant is named by joining option names with " + " in category
// order, merges the options' overrides (later categories win on a shared
// key) and carries the union of their conflicts.
func Matrix(categories []Category) []Variant {
	var nonEmpty []Category
	for _, c := range categories {
		if len(c.Options) > 0 {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}

	combos := [][]Variant{{}}
	for _, c := range nonEmpty {
		next := make([][]Variant, 0, len(combos)*len(c.Options))
		for _, combo := range combos {
			for _, opt := range c.Options {
				extended := make([]Variant, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, opt))
			}
		}
		combos = next
	}

	out := make([]Variant, 0, len(combos))
	for _, combo := range combos {
		out = append(out, combine(combo))
	}
	return out
}

func combine(parts []Variant) Variant {
	names := make([]string, len(parts))
	overrides := map[string]any{}
	var conflicts []string
	var descriptions []string
	for i, p := range parts {
		names[i] = p.Name
		for k, v := range p.Overrides {
			overrides[k] = v
		}
		conflicts = append(conflicts, p.ConflictsWith...)
		if p.Description != "" {
			descriptions = append(descriptions, p.Description)
		}
	}
	return Variant{
		Name:          strings.Join(names, " + "),
		Description:   strings.Join(descriptions, "; "),
		Overrides:     overrides,
		ConflictsWith: conflicts,
		parts:         parts,
	}
}

// FilterConflicts drops matrix variants in which one option lists another
// option of the same combination in its conflicts_with. Variants not built
// by Matrix are kept.
func FilterConflicts(variants []Variant) []Variant {
	var out []Variant
	for _, v := range variants {
		if !hasConflict(v) {
			out = append(out, v)
		}
	}
	return out
}

func hasConflict(v Variant) bool {
	for i, a := range v.parts {
		for j, b := range v.parts {
			if i != j && contains(a.ConflictsWith, b.Name) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
