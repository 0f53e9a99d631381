// Package source loads rule sets into a [rule.Catalog] and keeps it current.
//
// Rule sets come from an embedded file system and from doublestar globs on
// disk. Batches are ordered: embedded files by name, then each glob in
// configuration order with its matches sorted. A file matched by more than
// one glob is loaded once, at its first position.
//
// A [Provider] hands out the current catalog. [Static] always returns the
// same catalog; a [Reloader] rebuilds it when watched files change.
package source
