// Package expr provides CEL (Common Expression Language) environments for
// filtering rules.
//
// Environments include the CEL string, list, set and math extensions, and
// these functions:
//   - slugify(string) string: the section slug of a tag
//   - normalize(string) string: the string with diacritics removed
//   - hasAny(list<string>, list<string>) bool: case-insensitive overlap
package expr
