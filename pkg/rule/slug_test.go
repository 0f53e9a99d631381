package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/rulecat/pkg/rule"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want string
	}{
		"single word":          {in: "React", want: "react"},
		"two words":            {in: "Best Practices", want: "best-practices"},
		"dotted":               {in: "Next.js", want: "next.js"},
		"plus signs":           {in: "C++", want: "c++"},
		"hash dropped":         {in: "C#", want: "c"},
		"ampersand":            {in: "R&D", want: "r-and-d"},
		"existing hyphen":      {in: "Low-code", want: "low-code"},
		"version":              {in: "PHP7.3", want: "php7.3"},
		"all caps":             {in: "DESIGN PATTERNS", want: "design-patterns"},
		"collapses runs":       {in: "Web  --  Apps", want: "web-apps"},
		"trims separators":     {in: "  (Testing)  ", want: "testing"},
		"diacritics":           {in: "Café Crème", want: "cafe-creme"},
		"underscore kept":      {in: "snake_case", want: "snake_case"},
		"slash is a separator": {in: "CI/CD", want: "ci-cd"},
		"empty":                {in: "", want: ""},
		"only punctuation":     {in: "!?", want: ""},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, rule.Slugify(tc.in))
		})
	}
}

func TestSlugifyIsIdempotent(t *testing.T) {
	t.Parallel()

	for _, tag := range []string{"Next.js", "Best Practices", "C++", "Shadcn UI", "Café"} {
		once := rule.Slugify(tag)
		assert.Equal(t, once, rule.Slugify(once), tag)
	}
}

func TestValidSlug(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   string
		want bool
	}{
		"plain":          {in: "git-commit-cursor-rules", want: true},
		"namespaced":     {in: "official/react", want: true},
		"dotted":         {in: "next.js-rules", want: true},
		"empty":          {in: "", want: false},
		"whitespace":     {in: "git commit", want: false},
		"leading slash":  {in: "/react", want: false},
		"trailing slash": {in: "react/", want: false},
		"double slash":   {in: "official//react", want: false},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, rule.ValidSlug(tc.in))
		})
	}
}
