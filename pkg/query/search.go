package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/macropower/rulecat/pkg/rule"
)

// Field is the part of a rule a search term matched. Lower values rank
// first.
type Field int

const (
	FieldTitle Field = iota
	FieldSlug
	FieldTag
	FieldLib
)

func (f Field) String() string {
	switch f {
	case FieldTitle:
		return "title"
	case FieldSlug:
		return "slug"
	case FieldTag:
		return "tag"
	case FieldLib:
		return "lib"
	}

	return "unknown"
}

// Result is a rule matched by [Search].
type Result struct {
	Rule *rule.Rule
	// Field is the highest priority field that matched.
	Field Field
	// Score is the fuzzy score of the best match within Field.
	Score int
}

// target is one searchable field value of one rule.
type target struct {
	text  string
	index int
	field Field
}

type targets []target

func (t targets) String(i int) string {
	return t[i].text
}

func (t targets) Len() int {
	return len(t)
}

// ruleTargets appends the normalized field values of r. Each value is
// scored on its own, so rules carrying more tags or libs are not penalized.
func ruleTargets(ts targets, index int, r *rule.Rule) targets {
	add := func(f Field, values ...string) {
		for _, v := range values {
			if v == "" {
				continue
			}

			ts = append(ts, target{text: rule.Normalize(v), index: index, field: f})
		}
	}

	add(FieldTitle, r.Title)
	add(FieldSlug, r.Slug)
	add(FieldTag, r.Tags...)
	add(FieldLib, r.Libs...)

	return ts
}

// Search fuzzy matches term against the title, slug, tags and libs of
// rules. A rule ranks by its highest priority matching field (title, slug,
// tag, then lib), then by the best score within that field. Equal ranks keep
// store order. An empty term returns every rule in order with a zero score.
func Search(rules []*rule.Rule, term string) []Result {
	term = strings.TrimSpace(term)
	if term == "" {
		out := make([]Result, 0, len(rules))
		for _, r := range rules {
			out = append(out, Result{Rule: r})
		}

		return out
	}

	var ts targets
	for i, r := range rules {
		ts = ruleTargets(ts, i, r)
	}

	best := make(map[int]Result, len(rules))
	for _, m := range fuzzy.FindFrom(rule.Normalize(term), ts) {
		t := ts[m.Index]

		cur, ok := best[t.index]
		if ok && (cur.Field < t.field || cur.Field == t.field && cur.Score >= m.Score) {
			continue
		}

		best[t.index] = Result{Rule: rules[t.index], Field: t.field, Score: m.Score}
	}

	out := make([]Result, 0, len(best))
	for i := range rules {
		if res, ok := best[i]; ok {
			out = append(out, res)
		}
	}

	slices.SortStableFunc(out, func(a, b Result) int {
		if a.Field != b.Field {
			return cmp.Compare(a.Field, b.Field)
		}

		return cmp.Compare(b.Score, a.Score)
	})

	return out
}

// Rules returns the rules of results, in order.
func Rules(results []Result) []*rule.Rule {
	out := make([]*rule.Rule, 0, len(results))
	for _, res := range results {
		out = append(out, res.Rule)
	}

	return out
}
