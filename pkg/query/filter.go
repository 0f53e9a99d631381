package query

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/macropower/rulecat/pkg/expr"
	"github.com/macropower/rulecat/pkg/rule"
)

var env = must(expr.NewRuleEnvironment())

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}

	return v
}

// Filter selects rules with a compiled CEL expression. The zero value and
// a nil *Filter match every rule.
type Filter struct {
	program    cel.Program
	expression string
}

// NewFilter compiles expression. An empty expression matches every rule.
// Expressions whose type is known not to be bool are rejected.
func NewFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return &Filter{}, nil
	}

	program, err := env.CompilePredicate(expression)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", expression, err)
	}

	return &Filter{program: program, expression: expression}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	return f.expression
}

// Match reports whether r satisfies the filter. Evaluation errors and
// non-bool results do not match.
func (f *Filter) Match(r *rule.Rule) bool {
	if f == nil || f.program == nil {
		return true
	}

	out, _, err := f.program.Eval(map[string]any{expr.RuleVar: Value(r)})
	if err != nil {
		return false
	}

	b, ok := out.Value().(bool)

	return ok && b
}

// Apply returns the rules that match, in their original order.
func (f *Filter) Apply(rules []*rule.Rule) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(rules))
	for _, r := range rules {
		if f.Match(r) {
			out = append(out, r)
		}
	}

	return out
}

// Value converts r into the CEL map bound to the `rule` variable.
//
//nolint:ireturn // Following CEL's function signature.
func Value(r *rule.Rule) ref.Val {
	m := map[string]any{
		"title":   r.Title,
		"slug":    r.Slug,
		"tags":    r.Tags,
		"libs":    r.Libs,
		"content": r.Content,
		"source":  r.Source,
		"author":  nil,
	}

	if r.Tags == nil {
		m["tags"] = []string{}
	}
	if r.Libs == nil {
		m["libs"] = []string{}
	}

	if r.Author != nil {
		m["author"] = map[string]any{
			"name":   r.Author.Name,
			"url":    r.Author.URL,
			"avatar": r.Author.Avatar,
		}
	}

	return expr.ConvertToCELValue(m)
}
