package taxonomy

import (
	"fmt"
	"regexp"

	"github.com/alecbcs/spack-infrastructure/internal/model"
)

// RuleKind discriminates the three rule shapes. Evaluation dispatches on the
// kind; there is no runtime type inspection.
type RuleKind int

const (
	// RulePredicate matches on manifest metadata alone.
	RulePredicate RuleKind = iota
	// RuleLiteralPattern searches one pattern in the artifact text.
	RuleLiteralPattern
	// RulePatternSet matches when any of its patterns is found.
	RulePatternSet
)

// Rule is a tagged variant: exactly one of the predicate or the pattern list
// is populated, according to the kind.
type Rule struct {
	kind      RuleKind
	predicate func(model.JobRecord) bool
	patterns  []*regexp.Regexp
}

// predicates are the metadata predicates a taxonomy may reference by name.
// A predicate only reads manifest-derived fields, never artifact text.
var predicates = map[string]func(model.JobRecord) bool{
	"runner_missing": func(rec model.JobRecord) bool { return rec.Runner == nil },
}

// NewPredicate resolves a registered metadata predicate by name.
func NewPredicate(name string) (Rule, error) {
	fn, ok := predicates[name]
	if !ok {
		return Rule{}, &SchemaError{Problems: []string{fmt.Sprintf("unknown predicate %q", name)}}
	}
	return Rule{kind: RulePredicate, predicate: fn}, nil
}

// NewLiteralPattern compiles a single search pattern.
func NewLiteralPattern(expr string) (Rule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return Rule{kind: RuleLiteralPattern, patterns: []*regexp.Regexp{re}}, nil
}

// NewPatternSet compiles an alternation of search patterns; any one matching
// is sufficient.
func NewPatternSet(exprs []string) (Rule, error) {
	if len(exprs) == 0 {
		return Rule{}, fmt.Errorf("pattern set needs at least one pattern")
	}
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Rule{}, fmt.Errorf("compile pattern %q: %w", expr, err)
		}
		res = append(res, re)
	}
	return Rule{kind: RulePatternSet, patterns: res}, nil
}

func (r Rule) Kind() RuleKind { return r.kind }

// Match evaluates the rule for one job. Predicate rules ignore the artifact
// text; pattern rules search it case-sensitively with no anchoring beyond
// what the pattern itself encodes.
func (r Rule) Match(rec model.JobRecord, artifact string) bool {
	switch r.kind {
	case RulePredicate:
		return r.predicate(rec)
	case RuleLiteralPattern, RulePatternSet:
		for _, re := range r.patterns {
			if re.MatchString(artifact) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func mustLiteral(expr string) Rule {
	rule, err := NewLiteralPattern(expr)
	if err != nil {
		panic(err)
	}
	return rule
}

func mustSet(exprs ...string) Rule {
	rule, err := NewPatternSet(exprs)
	if err != nil {
		panic(err)
	}
	return rule
}

func mustPredicate(name string) Rule {
	rule, err := NewPredicate(name)
	if err != nil {
		panic(err)
	}
	return rule
}
