// Package mcp serves the rule catalog over the Model Context Protocol.
//
// The server exposes tools to list sections, read a section, read a rule
// and search rules, plus a resource template returning rule content as
// markdown. Every request reads the catalog from a [source.Provider], so a
// reloaded catalog is picked up without restarting the server.
package mcp

import (
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	name         = "rulecat"
	instructions = `MCP Server 'rulecat' serves a catalog of reusable editor and agent rules (prompt templates), grouped into sections by technology tag.

When to use these tools:
- Finding coding guidelines for a language, framework or library before writing code
- Reading the full text of a rule to follow or install it

REQUIRED workflow:
1. Use 'list_sections' or 'search_rules' to discover rules. Sections are ordered by popularity.
2. Use 'get_section' with a section slug EXACTLY as listed to see the rules it contains.
3. Use 'get_rule' with a rule slug EXACTLY as listed to read its content.

Rule content is also available as the resource 'rule:///{slug}'.
`

	// ResourceScheme prefixes rule resource URIs.
	ResourceScheme = "rule:///"

	defaultSearchLimit = 20
)

// inputSchema infers the schema for T and lets mutate adjust it. It panics
// on types that cannot be described, which only happens on programmer error.
func inputSchema[T any](mutate func(*jsonschema.Schema)) *jsonschema.Schema {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}

	if mutate != nil {
		mutate(s)
	}

	return s
}

func nonNegative(props ...string) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		zero := 0.0
		for _, p := range props {
			if prop, ok := s.Properties[p]; ok {
				prop.Minimum = &zero
			}
		}
	}
}

func nonEmpty(props ...string) func(*jsonschema.Schema) {
	return func(s *jsonschema.Schema) {
		one := 1
		for _, p := range props {
			if prop, ok := s.Properties[p]; ok {
				prop.MinLength = &one
			}
		}
	}
}
