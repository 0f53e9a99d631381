package rulesets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/api/v1beta1"
	"github.com/macropower/rulecat/api/v1beta1/rulesets"
	"github.com/macropower/rulecat/pkg/yaml"
)

const header = "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: RuleSet\n"

func TestLoad(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input     string
		path      string
		wantName  string
		wantSlugs []string
		wantErr   error
		wantPath  string
	}{
		"named": {
			path: "rules/react.yaml",
			input: header + `name: react-rules
rules:
  - title: React
    slug: react
    tags: [React]
    content: Use hooks.
`,
			wantName:  "react-rules",
			wantSlugs: []string{"react"},
		},
		"name from path": {
			path: "rules/next.js.yaml",
			input: header + `rules:
  - title: Next
    slug: next
    tags: [Next.js]
    libs: [next]
    author:
      name: Jane
      url: null
      avatar: https://example.com/a.png
    content: App router.
`,
			wantName:  "next.js",
			wantSlugs: []string{"next"},
		},
		"empty rules": {
			path:      "empty.yaml",
			input:     header + "rules: []\n",
			wantName:  "empty",
			wantSlugs: []string{},
		},
		"missing fields are left to the catalog": {
			path:      "partial.yaml",
			input:     header + "rules:\n  - slug: partial\n",
			wantName:  "partial",
			wantSlugs: []string{"partial"},
		},
		"tags not a list": {
			path:     "bad.yaml",
			input:    header + "rules:\n  - slug: a\n    tags: React\n",
			wantErr:  yaml.ErrSchemaValidation,
			wantPath: "$.rules[0].tags",
		},
		"unknown rule field": {
			path:     "bad.yaml",
			input:    header + "rules:\n  - slug: a\n    tag: React\n",
			wantErr:  yaml.ErrSchemaValidation,
			wantPath: "$.rules[0]",
		},
		"wrong kind": {
			path:     "config.yaml",
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\nrules: []\n",
			wantErr:  yaml.ErrSchemaValidation,
			wantPath: "$.kind",
		},
		"missing rules": {
			path:     "none.yaml",
			input:    header,
			wantErr:  yaml.ErrSchemaValidation,
			wantPath: "$",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rs, err := rulesets.Load(tc.path, []byte(tc.input))
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Contains(t, err.Error(), tc.path+":")

				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)
				assert.Equal(t, tc.wantPath, yamlErr.Path.String())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantName, rs.Name)

			slugs := []string{}
			for _, r := range rs.Rules {
				slugs = append(slugs, r.Slug)
			}

			assert.Equal(t, tc.wantSlugs, slugs)

			b := rs.Batch()
			assert.Equal(t, rs.Name, b.Source)
			assert.Len(t, b.Rules, len(rs.Rules))
		})
	}
}

func TestLoadAuthor(t *testing.T) {
	t.Parallel()

	rs, err := rulesets.Load("a.yaml", []byte(header+`rules:
  - title: A
    slug: a
    tags: [Go]
    author:
      name: Jane
      url: null
      avatar: https://example.com/a.png
    content: x
`))
	require.NoError(t, err)
	require.Len(t, rs.Rules, 1)

	author := rs.Rules[0].Author
	require.NotNil(t, author)
	assert.Equal(t, "Jane", author.Name)
	assert.Nil(t, author.URL)
	require.NotNil(t, author.Avatar)
	assert.Equal(t, "https://example.com/a.png", *author.Avatar)
	assert.Nil(t, rs.Rules[0].Libs)
}

func TestRuleSetMarshalYAML(t *testing.T) {
	t.Parallel()

	rs := rulesets.New()
	rs.Name = "roundtrip"
	rs.EnsureDefaults()

	data, err := rs.MarshalYAML()
	require.NoError(t, err)

	got, err := rulesets.Load("other.yaml", data)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", got.Name)
	assert.Equal(t, v1beta1.APIVersion, got.APIVersion)
	assert.Empty(t, got.Rules)
}

func TestNameFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "react", rulesets.NameFromPath("/a/b/react.yaml"))
	assert.Equal(t, "next.js", rulesets.NameFromPath("next.js.yml"))
	assert.Equal(t, "plain", rulesets.NameFromPath("plain"))
}
