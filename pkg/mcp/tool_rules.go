package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/query"
	"github.com/macropower/rulecat/pkg/rule"
)

// RuleSummary describes a rule without its content.
type RuleSummary struct {
	Slug   string   `json:"slug"   jsonschema:"rule slug, use with get_rule"`
	Title  string   `json:"title"`
	Source string   `json:"source" jsonschema:"the rule set the rule was loaded from"`
	Tags   []string `json:"tags"`
	Libs   []string `json:"libs"`
}

// AuthorInfo credits the author of a rule.
type AuthorInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// RuleDetail is a rule with its content.
type RuleDetail struct {
	Author  *AuthorInfo `json:"author,omitempty"`
	Slug    string      `json:"slug"`
	Title   string      `json:"title"`
	Source  string      `json:"source"`
	Content string      `json:"content"`
	Tags    []string    `json:"tags"`
	Libs    []string    `json:"libs"`
}

// GetRuleParams defines parameters for the get_rule tool.
type GetRuleParams struct {
	Slug string `json:"slug" jsonschema:"rule slug exactly as returned by get_section or search_rules"`
}

// GetRuleResult contains the result of reading a rule.
type GetRuleResult struct {
	Rule    *RuleDetail `json:"rule,omitempty"`
	Message string      `json:"message"`
	Found   bool        `json:"found"`
}

// SearchRulesParams defines parameters for the search_rules tool.
type SearchRulesParams struct {
	Query string `json:"query,omitempty" jsonschema:"fuzzy search over title, slug, tags and libs"`
	Where string `json:"where,omitempty" jsonschema:"CEL filter over the variable 'rule', e.g. '\"React\" in rule.tags'"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of rules to return; defaults to 20"`
}

// SearchRulesResult contains the result of searching rules.
type SearchRulesResult struct {
	Message string        `json:"message"`
	Rules   []RuleSummary `json:"rules"`
	Total   int           `json:"total"`
}

func (s *Server) handleGetRule(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params GetRuleParams,
) (*mcp.CallToolResult, GetRuleResult, error) {
	r, ok := s.provider.Current().RuleBySlug(params.Slug)
	s.observer.ObserveLookup(metrics.KindRule, ok)

	if !ok {
		return nil, GetRuleResult{
			Message: fmt.Sprintf("No rule with slug %q. Use list_sections and get_section, or search_rules, to find valid slugs.", params.Slug),
		}, nil
	}

	summary := summarizeRule(r)
	detail := &RuleDetail{
		Slug:    summary.Slug,
		Title:   summary.Title,
		Source:  summary.Source,
		Content: r.Content,
		Tags:    summary.Tags,
		Libs:    summary.Libs,
	}
	if r.Author != nil {
		detail.Author = &AuthorInfo{Name: r.Author.Name}
		if r.Author.URL != nil {
			detail.Author.URL = *r.Author.URL
		}
	}

	return nil, GetRuleResult{
		Found:   true,
		Rule:    detail,
		Message: fmt.Sprintf("Rule %q.", r.Title),
	}, nil
}

func (s *Server) handleSearchRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params SearchRulesParams,
) (*mcp.CallToolResult, SearchRulesResult, error) {
	filter, err := query.NewFilter(params.Where)
	if err != nil {
		return nil, SearchRulesResult{}, err
	}

	rules := filter.Apply(s.provider.Current().Rules())
	matches := query.Rules(query.Search(rules, params.Query))

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	result := SearchRulesResult{
		Rules: []RuleSummary{},
		Total: len(matches),
	}

	for _, r := range matches[:min(limit, len(matches))] {
		result.Rules = append(result.Rules, summarizeRule(r))
	}

	result.Message = fmt.Sprintf("Showing %d of %d matching rules.", len(result.Rules), result.Total)

	return nil, result, nil
}

func summarizeRule(r *rule.Rule) RuleSummary {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	libs := r.Libs
	if libs == nil {
		libs = []string{}
	}

	return RuleSummary{
		Slug:   r.Slug,
		Title:  r.Title,
		Source: r.Source,
		Tags:   tags,
		Libs:   libs,
	}
}
