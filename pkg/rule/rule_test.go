package rule_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/rule"
)

func newRaw(slug string, tags ...string) rule.Raw {
	return rule.Raw{
		Title:   strings.ToUpper(slug),
		Slug:    slug,
		Content: "content of " + slug,
		Tags:    tags,
	}
}

func TestBuildStore(t *testing.T) {
	t.Parallel()

	withLibs := newRaw("b", "Go")
	withLibs.Libs = []string{"gin", "cobra"}

	emptyLibs := newRaw("c", "Go")
	emptyLibs.Libs = []string{}

	store := rule.BuildStore([]rule.Batch{
		{Source: "first", Rules: []rule.Raw{newRaw("a", "Rust"), withLibs}},
		{Source: "empty"},
		{Source: "second", Rules: []rule.Raw{emptyLibs}},
	})

	require.Len(t, store, 3)

	slugs := make([]string, 0, len(store))
	for _, r := range store {
		slugs = append(slugs, r.Slug)
	}

	assert.Equal(t, []string{"a", "b", "c"}, slugs)

	assert.NotNil(t, store[0].Libs)
	assert.Empty(t, store[0].Libs)
	assert.Equal(t, []string{"gin", "cobra"}, store[1].Libs)
	assert.NotNil(t, store[2].Libs)
	assert.Empty(t, store[2].Libs)

	assert.Equal(t, "first", store[0].Source)
	assert.Equal(t, "first", store[1].Source)
	assert.Equal(t, "second", store[2].Source)
}

func TestBuildStoreKeepsMalformedRecords(t *testing.T) {
	t.Parallel()

	store := rule.BuildStore([]rule.Batch{
		{Rules: []rule.Raw{{Slug: "no-title"}, {Title: "no slug"}}},
	})

	require.Len(t, store, 2)
	assert.Equal(t, "no-title", store[0].Slug)
	assert.Empty(t, store[1].Slug)
	assert.Empty(t, store[1].Tags)
}

func TestBuildStoreEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, rule.BuildStore(nil))
	assert.Empty(t, rule.BuildStore([]rule.Batch{{Source: "a"}, {Source: "b"}}))
}

func TestRuleHasTag(t *testing.T) {
	t.Parallel()

	r := &rule.Rule{Tags: []string{"Go", "Rust"}}

	assert.True(t, r.HasTag("Go"))
	assert.False(t, r.HasTag("go"))
	assert.False(t, r.HasTag("Python"))
	assert.Equal(t, "Go Rules (go-rules)", (&rule.Rule{Title: "Go Rules", Slug: "go-rules"}).String())
}
