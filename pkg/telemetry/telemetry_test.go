package telemetry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/telemetry"
)

func TestConfigFromEnv(t *testing.T) {
	tcs := map[string]struct {
		env     map[string]string
		want    telemetry.Config
		wantErr bool
	}{
		"unset": {
			want: telemetry.Config{Version: "v1"},
		},
		"endpoint enables": {
			env:  map[string]string{telemetry.EnvEndpoint: "localhost:4317"},
			want: telemetry.Config{Version: "v1", Endpoint: "localhost:4317", Enabled: true},
		},
		"explicitly disabled": {
			env: map[string]string{
				telemetry.EnvEndpoint: "localhost:4317",
				telemetry.EnvEnabled:  "false",
			},
			want: telemetry.Config{Version: "v1", Endpoint: "localhost:4317"},
		},
		"enabled without endpoint": {
			env:  map[string]string{telemetry.EnvEnabled: "true"},
			want: telemetry.Config{Version: "v1"},
		},
		"insecure": {
			env: map[string]string{
				telemetry.EnvEndpoint: "collector:4317",
				telemetry.EnvInsecure: "1",
			},
			want: telemetry.Config{Version: "v1", Endpoint: "collector:4317", Enabled: true, Insecure: true},
		},
		"bad bool": {
			env:     map[string]string{telemetry.EnvEnabled: "maybe"},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Setenv(telemetry.EnvEndpoint, "")
			t.Setenv(telemetry.EnvEnabled, "")
			t.Setenv(telemetry.EnvInsecure, "")

			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			got, err := telemetry.ConfigFromEnv("v1")
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	shutdown, err := telemetry.Init(t.Context(), telemetry.Config{Endpoint: "localhost:4317"})
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))

	assert.NotNil(t, telemetry.Tracer("test"))
}
