package rule

import (
	"cmp"
	"slices"
)

// Section groups every rule that carries one tag.
type Section struct {
	Tag   string  `json:"tag"`
	Slug  string  `json:"slug"`
	Rules []*Rule `json:"rules"`
}

// Len returns the number of rules in the section.
func (s *Section) Len() int {
	return len(s.Rules)
}

// distinctTags returns every tag in the store, in first-seen order.
func distinctTags(store []*Rule) []string {
	seen := map[string]struct{}{}
	tags := []string{}

	for _, r := range store {
		for _, tag := range r.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}

			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	return tags
}

// buildSections derives the section index from the store.
func buildSections(store []*Rule) []*Section {
	tags := distinctTags(store)
	sections := make([]*Section, 0, len(tags))

	for _, tag := range tags {
		s := &Section{
			Tag:   tag,
			Slug:  Slugify(tag),
			Rules: []*Rule{},
		}
		for _, r := range store {
			if r.HasTag(tag) {
				s.Rules = append(s.Rules, r)
			}
		}

		sections = append(sections, s)
	}

	// Stable, so equal counts keep first-seen tag order.
	slices.SortStableFunc(sections, func(a, b *Section) int {
		return cmp.Compare(b.Len(), a.Len())
	})

	return sections
}
