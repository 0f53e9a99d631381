package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/query"
	"github.com/macropower/rulecat/pkg/rule"
)

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SectionSummary describes a section without its rules.
type SectionSummary struct {
	Slug      string `json:"slug"`
	Tag       string `json:"tag"`
	RuleCount int    `json:"ruleCount"`
}

// SectionsResponse is the body of GET /api/v1/sections.
type SectionsResponse struct {
	Sections []SectionSummary `json:"sections"`
	Total    int              `json:"total"`
}

// SectionResponse is the body of GET /api/v1/sections/:slug.
type SectionResponse struct {
	Slug  string       `json:"slug"`
	Tag   string       `json:"tag"`
	Rules []*rule.Rule `json:"rules"`
}

// RulesResponse is the body of GET /api/v1/rules.
type RulesResponse struct {
	Rules []*rule.Rule `json:"rules"`
	Total int          `json:"total"`
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rules":  s.provider.Current().Len(),
	})
}

func (s *Server) handleListSections(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)

		return
	}

	sections := s.provider.Current().Sections()

	resp := SectionsResponse{
		Sections: make([]SectionSummary, 0, len(sections)),
		Total:    len(sections),
	}

	if limit > 0 && limit < len(sections) {
		sections = sections[:limit]
	}

	for _, sec := range sections {
		resp.Sections = append(resp.Sections, SectionSummary{
			Slug:      sec.Slug,
			Tag:       sec.Tag,
			RuleCount: sec.Len(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetSection(c *gin.Context) {
	slug := c.Param("slug")

	sec, ok := s.provider.Current().SectionBySlug(slug)
	s.observer.ObserveLookup(metrics.KindSection, ok)

	if !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("section %q: %w", slug, rule.ErrNotFound))

		return
	}

	c.JSON(http.StatusOK, SectionResponse{
		Slug:  sec.Slug,
		Tag:   sec.Tag,
		Rules: sec.Rules,
	})
}

func (s *Server) handleListRules(c *gin.Context) {
	filter, err := query.NewFilter(c.Query("where"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)

		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		abort(c, http.StatusBadRequest, err)

		return
	}

	rules := filter.Apply(s.provider.Current().Rules())
	rules = query.Rules(query.Search(rules, c.Query("q")))

	resp := RulesResponse{Total: len(rules)}
	if limit > 0 && limit < len(rules) {
		rules = rules[:limit]
	}

	resp.Rules = rules
	if resp.Rules == nil {
		resp.Rules = []*rule.Rule{}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetRule(c *gin.Context) {
	slug := strings.TrimPrefix(c.Param("slug"), "/")
	if slug == "" {
		s.handleListRules(c)

		return
	}

	r, ok := s.provider.Current().RuleBySlug(slug)
	s.observer.ObserveLookup(metrics.KindRule, ok)

	if !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("rule %q: %w", slug, rule.ErrNotFound))

		return
	}

	c.JSON(http.StatusOK, r)
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidLimit, v)
	}

	return n, nil
}
