package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/rulecat/pkg/httpapi"
	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/source"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var _ httpapi.Observer = (*metrics.Metrics)(nil)

type recordingObserver struct {
	routes  map[string][]int
	lookups map[string][]bool
	mu      sync.Mutex
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		routes:  map[string][]int{},
		lookups: map[string][]bool{},
	}
}

func (o *recordingObserver) ObserveHTTPRequest(route string, code int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.routes[route] = append(o.routes[route], code)
}

func (o *recordingObserver) ObserveLookup(kind string, found bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lookups[kind] = append(o.lookups[kind], found)
}

func testCatalog() *rule.Catalog {
	return rule.MustNewCatalog([]rule.Batch{
		{
			Source: "web",
			Rules: []rule.Raw{
				{Title: "React Hooks", Slug: "react-hooks", Content: "hooks", Tags: []string{"React", "TypeScript"}, Libs: []string{"react"}},
				{Title: "Next.js App Router", Slug: "official/nextjs", Content: "router", Tags: []string{"React", "Next.js"}},
			},
		},
		{
			Source: "backend",
			Rules: []rule.Raw{
				{Title: "Go Services", Slug: "go-services", Content: "errors", Tags: []string{"Go"}},
			},
		},
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, target, http.NoBody)
	h.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())

	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s := httpapi.NewServer(source.NewStatic(testCatalog()))

	w := get(t, s.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.InDelta(t, 3, body["rules"], 0)
}

func TestListSections(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		target    string
		wantSlugs []string
		wantCode  int
	}{
		"all": {
			target:    "/api/v1/sections",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react", "typescript", "next.js", "go"},
		},
		"limited": {
			target:    "/api/v1/sections?limit=2",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react", "typescript"},
		},
		"zero limit returns all": {
			target:    "/api/v1/sections?limit=0",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react", "typescript", "next.js", "go"},
		},
		"negative limit": {
			target:   "/api/v1/sections?limit=-1",
			wantCode: http.StatusBadRequest,
		},
		"non-numeric limit": {
			target:   "/api/v1/sections?limit=many",
			wantCode: http.StatusBadRequest,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := httpapi.NewServer(source.NewStatic(testCatalog()))

			w := get(t, s.Handler(), tc.target)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())

			if tc.wantCode != http.StatusOK {
				body := decode[httpapi.ErrorResponse](t, w)
				assert.Contains(t, body.Error, "limit")

				return
			}

			body := decode[httpapi.SectionsResponse](t, w)

			slugs := make([]string, 0, len(body.Sections))
			for _, sec := range body.Sections {
				slugs = append(slugs, sec.Slug)
			}

			assert.Equal(t, tc.wantSlugs, slugs)
			assert.Equal(t, 4, body.Total)
		})
	}
}

func TestGetSection(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	s := httpapi.NewServer(source.NewStatic(testCatalog()), httpapi.WithObserver(observer))

	w := get(t, s.Handler(), "/api/v1/sections/react")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[httpapi.SectionResponse](t, w)
	assert.Equal(t, "React", body.Tag)
	require.Len(t, body.Rules, 2)
	assert.Equal(t, "react-hooks", body.Rules[0].Slug)
	assert.Equal(t, []string{}, body.Rules[1].Libs)

	w = get(t, s.Handler(), "/api/v1/sections/cobol")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[httpapi.ErrorResponse](t, w).Error, `"cobol"`)

	observer.mu.Lock()
	defer observer.mu.Unlock()

	assert.Equal(t, []bool{true, false}, observer.lookups[metrics.KindSection])
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, observer.routes["/api/v1/sections/:slug"])
}

func TestGetRule(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		target   string
		wantSlug string
		wantCode int
	}{
		"exact": {
			target:   "/api/v1/rules/react-hooks",
			wantCode: http.StatusOK,
			wantSlug: "react-hooks",
		},
		"slug with slash": {
			target:   "/api/v1/rules/official/nextjs",
			wantCode: http.StatusOK,
			wantSlug: "official/nextjs",
		},
		"legacy alias": {
			target:   "/api/v1/rules/nextjs",
			wantCode: http.StatusOK,
			wantSlug: "official/nextjs",
		},
		"missing": {
			target:   "/api/v1/rules/cobol",
			wantCode: http.StatusNotFound,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := httpapi.NewServer(source.NewStatic(testCatalog()))

			w := get(t, s.Handler(), tc.target)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())

			if tc.wantCode != http.StatusOK {
				assert.Contains(t, decode[httpapi.ErrorResponse](t, w).Error, rule.ErrNotFound.Error())

				return
			}

			assert.Equal(t, tc.wantSlug, decode[rule.Rule](t, w).Slug)
		})
	}
}

func TestListRules(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		target    string
		wantSlugs []string
		wantTotal int
		wantCode  int
	}{
		"all": {
			target:    "/api/v1/rules",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react-hooks", "official/nextjs", "go-services"},
			wantTotal: 3,
		},
		"trailing slash": {
			target:    "/api/v1/rules/",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react-hooks", "official/nextjs", "go-services"},
			wantTotal: 3,
		},
		"filtered": {
			target:    "/api/v1/rules?where=" + url.QueryEscape(`"React" in rule.tags`),
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react-hooks", "official/nextjs"},
			wantTotal: 2,
		},
		"searched": {
			target:    "/api/v1/rules?q=services",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"go-services"},
			wantTotal: 1,
		},
		"limited": {
			target:    "/api/v1/rules?limit=1",
			wantCode:  http.StatusOK,
			wantSlugs: []string{"react-hooks"},
			wantTotal: 3,
		},
		"no match": {
			target:    "/api/v1/rules?where=false",
			wantCode:  http.StatusOK,
			wantSlugs: []string{},
			wantTotal: 0,
		},
		"bad filter": {
			target:   "/api/v1/rules?where=" + url.QueryEscape("rule.tags +"),
			wantCode: http.StatusBadRequest,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := httpapi.NewServer(source.NewStatic(testCatalog()))

			w := get(t, s.Handler(), tc.target)
			require.Equal(t, tc.wantCode, w.Code, w.Body.String())

			if tc.wantCode != http.StatusOK {
				assert.NotEmpty(t, decode[httpapi.ErrorResponse](t, w).Error)

				return
			}

			body := decode[httpapi.RulesResponse](t, w)

			slugs := make([]string, 0, len(body.Rules))
			for _, r := range body.Rules {
				slugs = append(slugs, r.Slug)
			}

			assert.Equal(t, tc.wantSlugs, slugs)
			assert.Equal(t, tc.wantTotal, body.Total)
		})
	}
}

func TestNoRoute(t *testing.T) {
	t.Parallel()

	observer := newRecordingObserver()
	s := httpapi.NewServer(source.NewStatic(testCatalog()), httpapi.WithObserver(observer))

	w := get(t, s.Handler(), "/api/v2/rules")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode[httpapi.ErrorResponse](t, w).Error, "/api/v2/rules")

	observer.mu.Lock()
	defer observer.mu.Unlock()

	assert.Equal(t, []int{http.StatusNotFound}, observer.routes["unmatched"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	s := httpapi.NewServer(source.NewStatic(testCatalog()),
		httpapi.WithObserver(m),
		httpapi.WithMetricsHandler(m.Handler()),
	)

	get(t, s.Handler(), "/api/v1/rules/react-hooks")
	get(t, s.Handler(), "/api/v1/rules/cobol")

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP rulecat_lookups_total Section and rule lookups by slug.
# TYPE rulecat_lookups_total counter
rulecat_lookups_total{kind="rule",result="found"} 1
rulecat_lookups_total{kind="rule",result="not_found"} 1
`), "rulecat_lookups_total")
	require.NoError(t, err)

	w := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `rulecat_http_requests_total{code="404",route="/api/v1/rules/*slug"} 1`)
	assert.Contains(t, w.Body.String(), `rulecat_http_requests_total{code="200",route="/api/v1/rules/*slug"} 1`)
}
