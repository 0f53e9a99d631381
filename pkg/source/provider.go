package source

import (
	"github.com/macropower/rulecat/pkg/rule"
)

// Provider returns the catalog to serve queries from. Implementations must
// be safe for concurrent use.
type Provider interface {
	Current() *rule.Catalog
}

// Static is a [Provider] that always returns the same catalog.
type Static struct {
	catalog *rule.Catalog
}

// NewStatic creates a [Static] provider for c.
func NewStatic(c *rule.Catalog) *Static {
	return &Static{catalog: c}
}

// Current returns the catalog.
func (s *Static) Current() *rule.Catalog {
	return s.catalog
}
