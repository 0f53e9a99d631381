package rule

import (
	"fmt"
	"slices"
)

// LegacyPrefix is the namespace that older rule slugs were published under.
const LegacyPrefix = "official/"

// Author identifies who contributed a rule.
type Author struct {
	// URL links to the author's profile or homepage.
	URL *string `json:"url,omitempty" jsonschema:"title=URL,nullable" validate:"omitempty,url"`
	// Avatar links to an image of the author.
	Avatar *string `json:"avatar,omitempty" jsonschema:"title=Avatar,nullable" validate:"omitempty,url"`
	// Name is the author's display name.
	Name string `json:"name" jsonschema:"title=Name" validate:"required"`
}

// Rule is a single prompt template in the catalog.
type Rule struct {
	Author *Author `json:"author,omitempty"`
	// Source is the name of the batch the rule was loaded from.
	Source  string   `json:"source,omitempty"`
	Title   string   `json:"title"            validate:"required"`
	Slug    string   `json:"slug"             validate:"required,slug"`
	Content string   `json:"content"          validate:"required"`
	Tags    []string `json:"tags"             validate:"required,min=1,dive,required"`
	Libs    []string `json:"libs"             validate:"dive,required"`
}

// HasTag reports whether the rule carries the given tag.
func (r *Rule) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s (%s)", r.Title, r.Slug)
}

// Raw is a rule as it appears in a rule set document, before the store
// applies defaults.
type Raw struct {
	Author  *Author  `json:"author,omitempty" jsonschema:"title=Author"`
	Title   string   `json:"title"            jsonschema:"title=Title"`
	Slug    string   `json:"slug"             jsonschema:"title=Slug"`
	Content string   `json:"content"          jsonschema:"title=Content"`
	Tags    []string `json:"tags"             jsonschema:"title=Tags"`
	Libs    []string `json:"libs,omitempty"   jsonschema:"title=Libraries"`
}

// Batch is an ordered list of raw rules from one source.
type Batch struct {
	// Source names the batch, usually the rule set name.
	Source string
	Rules  []Raw
}

// BuildStore concatenates batches into a single ordered store. Batch order
// and in-batch order are preserved. Rules without libs get an empty list.
//
// BuildStore never fails and performs no validation or deduplication.
func BuildStore(batches []Batch) []*Rule {
	n := 0
	for _, b := range batches {
		n += len(b.Rules)
	}

	store := make([]*Rule, 0, n)
	for _, b := range batches {
		for _, raw := range b.Rules {
			store = append(store, newRule(b.Source, raw))
		}
	}

	return store
}

func newRule(source string, raw Raw) *Rule {
	libs := raw.Libs
	if libs == nil {
		libs = []string{}
	}

	return &Rule{
		Title:   raw.Title,
		Slug:    raw.Slug,
		Tags:    raw.Tags,
		Libs:    libs,
		Content: raw.Content,
		Author:  raw.Author,
		Source:  source,
	}
}
