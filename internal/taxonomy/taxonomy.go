package taxonomy

import (
	"fmt"
	"strings"
)

// Category is one named classification rule.
type Category struct {
	Name string
	Rule Rule
}

// Taxonomy is an ordered list of categories. Order is the declared order and
// is preserved through classification and export; categories are independent
// boolean columns, never mutually exclusive.
type Taxonomy struct {
	categories []Category
}

// New validates and builds a taxonomy. Names must be non-empty and distinct.
func New(categories []Category) (*Taxonomy, error) {
	problems := make([]string, 0)
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			problems = append(problems, "category with empty name")
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("duplicate category %q", name))
		}
		seen[name] = true
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}
	return &Taxonomy{categories: append([]Category(nil), categories...)}, nil
}

// Categories returns the categories in declared order.
func (t *Taxonomy) Categories() []Category {
	return append([]Category(nil), t.categories...)
}

// Names returns the category names in declared order.
func (t *Taxonomy) Names() []string {
	names := make([]string, 0, len(t.categories))
	for _, c := range t.categories {
		names = append(names, c.Name)
	}
	return names
}

func (t *Taxonomy) Len() int {
	return len(t.categories)
}
