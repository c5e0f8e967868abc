package fuzzy

import (
	"errors"
	"fmt"
	"sort"
)

// Rule maps one antecedent term of the input variable to one or more
// consequent terms of the output variable.
type Rule struct {
	If   string   `yaml:"if" json:"if"`
	Then []string `yaml:"then" json:"then"`
}

// RuleBase is an ordered set of single-antecedent rules.
type RuleBase struct {
	rules []Rule
}

func NewRuleBase(rules ...Rule) *RuleBase {
	rb := &RuleBase{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		rb.Add(r)
	}
	return rb
}

func (rb *RuleBase) Add(r Rule) {
	then := make([]string, len(r.Then))
	copy(then, r.Then)
	rb.rules = append(rb.rules, Rule{If: r.If, Then: then})
}

func (rb *RuleBase) Rules() []Rule {
	out := make([]Rule, len(rb.rules))
	copy(out, rb.rules)
	return out
}

func (rb *RuleBase) Len() int { return len(rb.rules) }

// Consequents returns every consequent term named by any rule, sorted.
func (rb *RuleBase) Consequents() []string {
	seen := make(map[string]struct{})
	for _, r := range rb.rules {
		for _, c := range r.Then {
			seen[c] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every antecedent exists in in and every consequent
// exists in out.
func (rb *RuleBase) Validate(in, out *Variable) error {
	var errs []error
	for i, r := range rb.rules {
		if _, ok := in.Term(r.If); !ok {
			errs = append(errs, fmt.Errorf("rule %d: %w: %s.%s", i, ErrUnknownTerm, in.Name, r.If))
		}
		if len(r.Then) == 0 {
			errs = append(errs, fmt.Errorf("rule %d: no consequent for %q", i, r.If))
		}
		for _, c := range r.Then {
			if _, ok := out.Term(c); !ok {
				errs = append(errs, fmt.Errorf("rule %d: %w: %s.%s", i, ErrUnknownTerm, out.Name, c))
			}
		}
	}
	return errors.Join(errs...)
}

// Infer applies max composition: each consequent takes the largest degree
// of any antecedent that targets it. Consequents that no rule fires stay 0.
func Infer(in Degrees, rb *RuleBase) Degrees {
	out := make(Degrees)
	for _, r := range rb.rules {
		for _, c := range r.Then {
			if _, ok := out[c]; !ok {
				out[c] = 0
			}
		}
	}
	for _, r := range rb.rules {
		d := in[r.If]
		for _, c := range r.Then {
			if d > out[c] {
				out[c] = d
			}
		}
	}
	return out
}
