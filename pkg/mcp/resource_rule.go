package mcp

import (
	"context"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/macropower/rulecat/pkg/metrics"
)

const markdownMIMEType = "text/markdown"

func ruleResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "rule",
		Title:       "Rule",
		Description: "Content of a catalog rule. URI format: rule:///{slug}",
		MIMEType:    markdownMIMEType,
		URITemplate: ResourceScheme + "{+slug}",
	}
}

// RuleURI returns the resource URI of a rule slug.
func RuleURI(slug string) string {
	return ResourceScheme + slug
}

func (s *Server) handleReadRule(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI

	slug, err := url.PathUnescape(strings.TrimPrefix(uri, ResourceScheme))
	if err != nil || !strings.HasPrefix(uri, ResourceScheme) {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	r, ok := s.provider.Current().RuleBySlug(slug)
	s.observer.ObserveLookup(metrics.KindRule, ok)

	if !ok {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: markdownMIMEType,
			Text:     r.Content,
		}},
	}, nil
}
