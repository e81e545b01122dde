package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// categorySpec is one entry of a taxonomy file: a name plus exactly one of
// predicate, pattern, or patterns.
type categorySpec struct {
	Name      string   `yaml:"name"`
	Predicate string   `yaml:"predicate,omitempty"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Patterns  []string `yaml:"patterns,omitempty"`
}

// LoadFile reads an ordered taxonomy definition from a YAML file. File order
// becomes evaluation and export order.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file %s: %w", path, err)
	}

	var specs []categorySpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse taxonomy file %s: %w", path, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("taxonomy file %s defines no categories", path)
	}

	categories := make([]Category, 0, len(specs))
	problems := make([]string, 0)
	for i, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		label := name
		if label == "" {
			label = fmt.Sprintf("entry %d", i+1)
		}

		shapes := 0
		if spec.Predicate != "" {
			shapes++
		}
		if spec.Pattern != "" {
			shapes++
		}
		if len(spec.Patterns) > 0 {
			shapes++
		}
		if shapes != 1 {
			problems = append(problems, fmt.Sprintf("%s: need exactly one of predicate, pattern, or patterns", label))
			continue
		}

		var rule Rule
		var ruleErr error
		switch {
		case spec.Predicate != "":
			rule, ruleErr = NewPredicate(spec.Predicate)
		case spec.Pattern != "":
			rule, ruleErr = NewLiteralPattern(spec.Pattern)
		default:
			rule, ruleErr = NewPatternSet(spec.Patterns)
		}
		if ruleErr != nil {
			if schemaErr, ok := ruleErr.(*SchemaError); ok {
				for _, p := range schemaErr.Problems {
					problems = append(problems, fmt.Sprintf("%s: %s", label, p))
				}
			} else {
				problems = append(problems, fmt.Sprintf("%s: %v", label, ruleErr))
			}
			continue
		}
		categories = append(categories, Category{Name: name, Rule: rule})
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Problems: problems}
	}

	return New(categories)
}
