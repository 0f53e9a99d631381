package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/source"
)

var _ source.ReloadObserver = (*metrics.Metrics)(nil)

func testCatalog(t *testing.T) *rule.Catalog {
	t.Helper()

	c, err := rule.NewCatalog([]rule.Batch{{
		Source: "test",
		Rules: []rule.Raw{
			{Title: "A", Slug: "a", Content: "a", Tags: []string{"Go", "CLI"}},
			{Title: "B", Slug: "b", Content: "b", Tags: []string{"Go"}},
		},
	}})
	require.NoError(t, err)

	return c
}

func TestObserveReload(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.ObserveReload(testCatalog(t), nil)
	m.ObserveReload(nil, errors.New("boom"))

	expected := `
# HELP rulecat_catalog_reloads_total Catalog rebuilds by result.
# TYPE rulecat_catalog_reloads_total counter
rulecat_catalog_reloads_total{result="error"} 1
rulecat_catalog_reloads_total{result="success"} 1
# HELP rulecat_catalog_rules Rules in the current catalog.
# TYPE rulecat_catalog_rules gauge
rulecat_catalog_rules 2
# HELP rulecat_catalog_sections Sections in the current catalog.
# TYPE rulecat_catalog_sections gauge
rulecat_catalog_sections 2
`

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"rulecat_catalog_reloads_total", "rulecat_catalog_rules", "rulecat_catalog_sections",
	)
	require.NoError(t, err)
}

func TestObserveLookupAndToolCall(t *testing.T) {
	t.Parallel()

	m := metrics.New()

	m.ObserveLookup(metrics.KindRule, true)
	m.ObserveLookup(metrics.KindRule, false)
	m.ObserveLookup(metrics.KindRule, false)
	m.ObserveToolCall("get_rule", nil)
	m.ObserveToolCall("get_rule", errors.New("boom"))

	expected := `
# HELP rulecat_lookups_total Section and rule lookups by slug.
# TYPE rulecat_lookups_total counter
rulecat_lookups_total{kind="rule",result="found"} 1
rulecat_lookups_total{kind="rule",result="not_found"} 2
# HELP rulecat_mcp_tool_calls_total MCP tool calls by tool and result.
# TYPE rulecat_mcp_tool_calls_total counter
rulecat_mcp_tool_calls_total{result="error",tool="get_rule"} 1
rulecat_mcp_tool_calls_total{result="success",tool="get_rule"} 1
`

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"rulecat_lookups_total", "rulecat_mcp_tool_calls_total",
	)
	require.NoError(t, err)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := metrics.New(metrics.WithRuntimeCollectors())
	m.ObserveHTTPRequest("/api/v1/sections", http.StatusOK, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rulecat_http_requests_total{code="200",route="/api/v1/sections"} 1`)
	assert.Contains(t, rec.Body.String(), "rulecat_http_request_duration_seconds_bucket")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
