package yaml_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/yaml"
)

var errTest = errors.New("value is required")

func TestErrorString(t *testing.T) {
	t.Parallel()

	path := func(parts ...string) func() *yaml.Error {
		return func() *yaml.Error {
			pb := yaml.NewPathBuilder().Root()
			for _, p := range parts {
				pb = pb.Child(p)
			}

			return yaml.NewError(errTest, yaml.WithPath(pb.Build()))
		}
	}

	tcs := map[string]struct {
		err  func() *yaml.Error
		want string
	}{
		"path without source": {
			err:  path("catalog", "sources"),
			want: "error at $.catalog.sources: value is required",
		},
		"no location": {
			err:  func() *yaml.Error { return yaml.NewError(errTest) },
			want: "value is required",
		},
		"nil error": {
			err:  func() *yaml.Error { return &yaml.Error{} },
			want: "",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.err().Error())
		})
	}
}

func TestErrorAnnotatesSource(t *testing.T) {
	t.Parallel()

	src := []byte(`a: 1
b: 2
c: 3
key: value
d: 4
e: 5
f: 6
g: 7`)

	err := yaml.NewError(errTest,
		yaml.WithPath(yaml.NewPathBuilder().Root().Child("key").Build()),
		yaml.WithSourceLines(2),
		yaml.WithTheme(render.NewTheme("onedark")),
		yaml.WithFormatter("terminal16m"),
		yaml.WithSource(src),
	)

	out := ansi.Strip(err.Error())
	assert.Contains(t, out, "[4:1] value is required:")
	assert.Contains(t, out, "   2  b: 2")
	assert.Contains(t, out, "   4  key: value")
	assert.Contains(t, out, "   6  e: 5")
	assert.NotContains(t, out, "a: 1")
	assert.NotContains(t, out, "f: 6")
	assert.Equal(t, 4, err.Line())
}

func TestErrorWrapper(t *testing.T) {
	t.Parallel()

	ew := yaml.NewErrorWrapper(yaml.WithSourceLines(1))

	require.NoError(t, ew.Wrap(nil))

	plain := errors.New("plain")
	assert.Equal(t, plain, ew.Wrap(plain))

	inner := yaml.NewError(errTest)
	wrapped := ew.Wrap(fmt.Errorf("load: %w", inner), yaml.WithSource([]byte("x: 1")))

	require.ErrorIs(t, wrapped, errTest)
	assert.Equal(t, 1, inner.SourceLines)
	assert.Equal(t, []byte("x: 1"), inner.Source)
}
