package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/rule"
)

func testCatalog(t *testing.T) *rule.Catalog {
	t.Helper()

	url := "https://example.com/jane"

	c, err := rule.NewCatalog([]rule.Batch{{
		Source: "test",
		Rules: []rule.Raw{
			{
				Title:   "React Rules",
				Slug:    "react-rules",
				Tags:    []string{"React", "TypeScript"},
				Libs:    []string{"react", "zustand"},
				Content: "# React\n\nUse hooks.",
				Author:  &rule.Author{Name: "Jane", URL: &url},
			},
			{
				Title:   "Next.js Rules",
				Slug:    "nextjs-rules",
				Tags:    []string{"React", "Next.js"},
				Content: "Use the app router.",
				Author:  &rule.Author{Name: "John"},
			},
		},
	}})
	require.NoError(t, err)

	return c
}

func plainLines(s string) []string {
	return strings.Split(strings.TrimRight(ansi.Strip(s), "\n"), "\n")
}

func TestRendererSections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := render.NewRenderer(&buf, render.Default)
	require.NoError(t, r.Sections(testCatalog(t).Sections()))

	assert.Equal(t, []string{
		"SLUG        TAG         RULES",
		"react       React       2",
		"typescript  TypeScript  1",
		"next.js     Next.js     1",
	}, plainLines(buf.String()))
}

func TestRendererRulesTruncates(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := render.NewRenderer(&buf, render.Default, render.WithWidth(36))
	require.NoError(t, r.Rules(testCatalog(t).Rules()))

	lines := plainLines(buf.String())
	require.Len(t, lines, 3)

	for _, line := range lines {
		assert.LessOrEqual(t, ansi.StringWidth(line), 36, line)
	}

	assert.True(t, strings.HasPrefix(lines[1], "react-rules   React Rules    React"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], render.Ellipsis), lines[1])
}

func TestRendererSection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	s, ok := testCatalog(t).SectionBySlug("react")
	require.True(t, ok)

	r := render.NewRenderer(&buf, render.Default)
	require.NoError(t, r.Section(s))

	out := ansi.Strip(buf.String())
	assert.True(t, strings.HasPrefix(out, "React (react, 2 rules)\n\n"), out)
	assert.Contains(t, out, "react-rules")
	assert.Contains(t, out, "nextjs-rules")
}

func TestRendererRule(t *testing.T) {
	t.Parallel()

	c := testCatalog(t)

	tcs := map[string]struct {
		slug     string
		opts     []render.Option
		contains []string
		excludes []string
	}{
		"with author url": {
			slug: "react-rules",
			contains: []string{
				"React Rules\nreact-rules · test\n",
				"Tags: React, TypeScript\n",
				"Libs: react, zustand\n",
				"Author: Jane <https://example.com/jane>\n",
				"  # React\n",
				"  Use hooks.\n",
			},
		},
		"without libs": {
			slug:     "nextjs-rules",
			contains: []string{"Author: John\n", "  Use the app router.\n"},
			excludes: []string{"Libs:", "<"},
		},
		"line numbers": {
			slug:     "react-rules",
			opts:     []render.Option{render.WithContentLineNumbers(true)},
			contains: []string{"     1  # React\n", "     3  Use hooks.\n"},
		},
		"highlighted": {
			slug:     "nextjs-rules",
			opts:     []render.Option{render.WithHighlight(true)},
			contains: []string{"Use the app router."},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rl, ok := c.RuleBySlug(tc.slug)
			require.True(t, ok)

			var buf bytes.Buffer

			r := render.NewRenderer(&buf, render.Default, tc.opts...)
			require.NoError(t, r.Rule(rl))

			out := ansi.Strip(buf.String())
			for _, want := range tc.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tc.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestRendererDiff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	r := render.NewRenderer(&buf, render.Default)
	require.NoError(t, r.Diff(""))
	assert.Empty(t, buf.String())

	diff := "--- a\n+++ b\n@@ -1 +1 @@\n-old\n+new\n"
	require.NoError(t, r.Diff(diff))
	assert.Equal(t, diff, ansi.Strip(buf.String()))
}
