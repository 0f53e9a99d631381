package api_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/api"
)

//nolint:paralleltest // Mutates environment variables.
func TestGetConfigPath(t *testing.T) {
	tcs := map[string]struct {
		xdg  string
		home string
		want string
	}{
		"xdg config home": {
			xdg:  "/custom/config",
			home: "/test/home",
			want: "/custom/config/rulecat/config.yaml",
		},
		"home fallback": {
			home: "/test/home",
			want: "/test/home/.config/rulecat/config.yaml",
		},
		"temp fallback": {
			want: filepath.Join(os.TempDir(), "rulecat", "config.yaml"), //nolint:usetesting // Must equal host.
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Setenv("XDG_CONFIG_HOME", tc.xdg)
			t.Setenv("HOME", tc.home)

			assert.Equal(t, tc.want, api.GetConfigPath("config.yaml"))
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: []"), 0o600))

	got, err := api.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rules: []", string(got))

	_, err = api.ReadFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = api.ReadFile(dir)
	require.ErrorIs(t, err, api.ErrIsDirectory)
}

func TestWriteDefaultFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		existing    string
		want        string
		force       bool
		wantWritten bool
		wantBackup  bool
	}{
		"new file": {
			want:        "default",
			wantWritten: true,
		},
		"existing without force": {
			existing: "custom",
			want:     "custom",
		},
		"existing with force": {
			existing:    "custom",
			force:       true,
			want:        "default",
			wantWritten: true,
			wantBackup:  true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "nested")
			path := filepath.Join(dir, "config.yaml")

			if tc.existing != "" {
				require.NoError(t, os.MkdirAll(dir, 0o700))
				require.NoError(t, os.WriteFile(path, []byte(tc.existing), 0o600))
			}

			written, err := api.WriteDefaultFile(path, []byte("default"), tc.force, "config")
			require.NoError(t, err)
			assert.Equal(t, tc.wantWritten, written)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)

			var backups []string
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".old") {
					backups = append(backups, e.Name())
				}
			}

			if !tc.wantBackup {
				assert.Empty(t, backups)

				return
			}

			require.Len(t, backups, 1)

			backup, err := os.ReadFile(filepath.Join(dir, backups[0]))
			require.NoError(t, err)
			assert.Equal(t, tc.existing, string(backup))
		})
	}
}

func TestWriteDefaultFileDirectory(t *testing.T) {
	t.Parallel()

	_, err := api.WriteDefaultFile(t.TempDir(), []byte("x"), true, "config")
	require.ErrorIs(t, err, api.ErrIsDirectory)
}
