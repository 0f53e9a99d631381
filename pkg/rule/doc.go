// Package rule implements the rule catalog: an ordered store of rules built
// from per-technology batches, a tag-based section index, and slug lookups.
//
// A [Catalog] is immutable once constructed. Sections are derived on every
// query and ordered by popularity (rule count, descending), with ties kept in
// the order their tags were first seen while scanning the store.
//
// Rule lookup by slug prefers an exact match and falls back to the legacy
// "official/" namespace, so links to previously namespaced rules keep working.
package rule
