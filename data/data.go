// Package data contains the built-in rule sets shipped with rulecat.
package data

import "embed"

// Rules holds every built-in rule set document under rules/.
//
//go:embed rules/*.yaml
var Rules embed.FS

// RulesDir is the directory within [Rules] that holds the documents.
const RulesDir = "rules"
