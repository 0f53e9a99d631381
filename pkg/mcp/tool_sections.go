package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/rule"
)

// SectionSummary describes a section without its rules.
type SectionSummary struct {
	Slug      string `json:"slug"      jsonschema:"section slug, use with get_section"`
	Tag       string `json:"tag"       jsonschema:"the tag shared by every rule in the section"`
	RuleCount int    `json:"ruleCount" jsonschema:"number of rules in the section"`
}

// ListSectionsParams defines parameters for the list_sections tool.
type ListSectionsParams struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of sections to return, most popular first; 0 returns all"`
}

// ListSectionsResult contains the result of listing sections.
type ListSectionsResult struct {
	Message  string           `json:"message"`
	Sections []SectionSummary `json:"sections"`
	Total    int              `json:"total"`
}

// GetSectionParams defines parameters for the get_section tool.
type GetSectionParams struct {
	Slug string `json:"slug" jsonschema:"section slug exactly as returned by list_sections"`
}

// SectionDetail is a section with its rules.
type SectionDetail struct {
	Slug  string        `json:"slug"`
	Tag   string        `json:"tag"`
	Rules []RuleSummary `json:"rules"`
}

// GetSectionResult contains the result of reading a section.
type GetSectionResult struct {
	Section *SectionDetail `json:"section,omitempty"`
	Message string         `json:"message"`
	Found   bool           `json:"found"`
}

func (s *Server) handleListSections(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params ListSectionsParams,
) (*mcp.CallToolResult, ListSectionsResult, error) {
	sections := s.provider.Current().Sections()

	result := ListSectionsResult{
		Sections: []SectionSummary{},
		Total:    len(sections),
	}

	if params.Limit > 0 && params.Limit < len(sections) {
		sections = sections[:params.Limit]
	}

	for _, sec := range sections {
		result.Sections = append(result.Sections, summarizeSection(sec))
	}

	result.Message = fmt.Sprintf("Showing %d of %d sections.", len(result.Sections), result.Total)

	return nil, result, nil
}

func (s *Server) handleGetSection(
	_ context.Context,
	_ *mcp.CallToolRequest,
	params GetSectionParams,
) (*mcp.CallToolResult, GetSectionResult, error) {
	sec, ok := s.provider.Current().SectionBySlug(params.Slug)
	s.observer.ObserveLookup(metrics.KindSection, ok)

	if !ok {
		return nil, GetSectionResult{
			Message: fmt.Sprintf("No section with slug %q. Use list_sections to see valid slugs.", params.Slug),
		}, nil
	}

	detail := &SectionDetail{
		Slug:  sec.Slug,
		Tag:   sec.Tag,
		Rules: make([]RuleSummary, 0, len(sec.Rules)),
	}
	for _, r := range sec.Rules {
		detail.Rules = append(detail.Rules, summarizeRule(r))
	}

	return nil, GetSectionResult{
		Found:   true,
		Section: detail,
		Message: fmt.Sprintf("Section %q has %d rules.", sec.Tag, len(sec.Rules)),
	}, nil
}

func summarizeSection(sec *rule.Section) SectionSummary {
	return SectionSummary{
		Slug:      sec.Slug,
		Tag:       sec.Tag,
		RuleCount: sec.Len(),
	}
}
