// Package query filters and searches rules.
//
// A [Filter] evaluates a CEL expression against each rule, exposed as the
// map variable `rule` with the keys title, slug, tags, libs, content,
// source and author. [Search] ranks rules by fuzzy matching a term against
// their title, slug, tags and libs.
package query
