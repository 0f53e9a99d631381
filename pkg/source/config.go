package source

import (
	"fmt"
	"slices"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/macropower/rulecat/pkg/rule"
)

// Config selects which rule sets make up the catalog and how they are
// checked.
type Config struct {
	// Builtin includes the embedded rule sets.
	Builtin *bool `json:"builtin,omitempty" jsonschema:"title=Builtin"`
	// Validation is "strict" or "warn".
	Validation rule.Validation `json:"validation,omitempty" jsonschema:"title=Validation,enum=strict,enum=warn"`
	// Duplicates is "first" or "error".
	Duplicates rule.Duplicates `json:"duplicates,omitempty" jsonschema:"title=Duplicates,enum=first,enum=error"`
	// Sources are doublestar globs of additional rule set files.
	Sources []string `json:"sources,omitempty" jsonschema:"title=Sources"`
}

func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Builtin == nil {
		builtin := true
		c.Builtin = &builtin
	}
	if c.Validation == "" {
		c.Validation = rule.ValidationStrict
	}
	if c.Duplicates == "" {
		c.Duplicates = rule.DuplicatesFirst
	}
}

func (c *Config) Validate() error {
	if !slices.Contains(rule.AllValidations, string(c.Validation)) {
		return fmt.Errorf("unknown validation mode %q", c.Validation)
	}
	if !slices.Contains(rule.AllDuplicates, string(c.Duplicates)) {
		return fmt.Errorf("unknown duplicates mode %q", c.Duplicates)
	}

	for _, pattern := range c.Sources {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
		}
	}

	return nil
}

// CatalogOpts returns the catalog options selected by the config.
func (c *Config) CatalogOpts() []rule.CatalogOpt {
	return []rule.CatalogOpt{
		rule.WithValidation(c.Validation),
		rule.WithDuplicates(c.Duplicates),
	}
}
