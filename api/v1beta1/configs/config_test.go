package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/api/v1beta1"
	"github.com/macropower/rulecat/api/v1beta1/configs"
	"github.com/macropower/rulecat/pkg/install"
	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/yaml"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := configs.New()

	assert.Equal(t, v1beta1.APIVersion, cfg.GetAPIVersion())
	assert.Equal(t, configs.Kind, cfg.GetKind())
	require.NotNil(t, cfg.Catalog.Builtin)
	assert.True(t, *cfg.Catalog.Builtin)
	assert.Equal(t, rule.ValidationStrict, cfg.Catalog.Validation)
	assert.Equal(t, rule.DuplicatesFirst, cfg.Catalog.Duplicates)
	assert.Equal(t, "auto", cfg.Render.Theme)
	assert.Equal(t, install.DefaultDir, cfg.Install.Dir)
	assert.Equal(t, install.DefaultExtension, cfg.Install.Extension)
	assert.NotNil(t, cfg.Server)
	require.NoError(t, cfg.Validate())
}

func TestDefaultYAML(t *testing.T) {
	t.Parallel()

	data := configs.DefaultYAML()
	require.NoError(t, configs.DefaultValidator.ValidateBytes(data))

	cfg := &configs.Config{}
	require.NoError(t, yaml.Unmarshal(data, cfg))
	cfg.EnsureDefaults()
	require.NoError(t, cfg.Validate())

	want := configs.New()
	assert.Equal(t, want.TypeMeta, cfg.TypeMeta)
	assert.Equal(t, *want.Catalog.Builtin, *cfg.Catalog.Builtin)
	assert.Equal(t, want.Catalog.Validation, cfg.Catalog.Validation)
	assert.Equal(t, want.Catalog.Duplicates, cfg.Catalog.Duplicates)
	assert.Empty(t, cfg.Catalog.Sources)
	assert.Equal(t, want.Render.Theme, cfg.Render.Theme)
	assert.Equal(t, *want.Render.LineNumbers, *cfg.Render.LineNumbers)
	assert.Equal(t, want.Install, cfg.Install)
	assert.Equal(t, want.Server, cfg.Server)
}

func TestSchema(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		wantPath string
	}{
		"minimal": {
			input: "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\n",
		},
		"wrong kind": {
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: RuleSet\n",
			wantPath: "$.kind",
		},
		"unknown field": {
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\ncatalog:\n  extra: 1\n",
			wantPath: "$.catalog",
		},
		"bad validation mode": {
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\ncatalog:\n  validation: lenient\n",
			wantPath: "$.catalog.validation",
		},
		"negative width": {
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\nrender:\n  width: -1\n",
			wantPath: "$.render.width",
		},
		"bad extension": {
			input:    "apiVersion: rulecat.jacobcolvin.com/v1beta1\nkind: Configuration\ninstall:\n  extension: mdc\n",
			wantPath: "$.install.extension",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := configs.DefaultValidator.ValidateBytes([]byte(tc.input))
			if tc.wantPath == "" {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		modify func(c *configs.Config)
		errMsg string
	}{
		"bad glob": {
			modify: func(c *configs.Config) { c.Catalog.Sources = []string{"rules/[.yaml"} },
			errMsg: "catalog:",
		},
		"absolute install dir": {
			modify: func(c *configs.Config) { c.Install.Dir = "/etc/rules" },
			errMsg: "install:",
		},
		"wrong kind": {
			modify: func(c *configs.Config) { c.Kind = "RuleSet" },
			errMsg: "unexpected kind",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := configs.New()
			tc.modify(cfg)

			require.ErrorContains(t, cfg.Validate(), tc.errMsg)
		})
	}
}

func TestMarshalYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := configs.New()
	cfg.Catalog.Sources = []string{"~/rules/*.yaml"}

	data, err := cfg.MarshalYAML()
	require.NoError(t, err)
	require.NoError(t, configs.DefaultValidator.ValidateBytes(data))

	got := &configs.Config{}
	require.NoError(t, yaml.Unmarshal(data, got))
	assert.Equal(t, cfg.Catalog.Sources, got.Catalog.Sources)
	assert.Equal(t, cfg.TypeMeta, got.TypeMeta)
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rulecat", "config.yaml")

	written, err := configs.WriteDefault(path, false)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configs.DefaultYAML(), got)

	written, err = configs.WriteDefault(path, false)
	require.NoError(t, err)
	assert.False(t, written)
}
