package render

import (
	"fmt"
	"maps"
	"slices"
)

// Config contains terminal rendering options.
type Config struct {
	// Styles defines custom chroma styles, keyed by style name and then by
	// chroma token type, e.g. {"mine": {"Comment": "italic #888888"}}.
	Styles map[string]map[string]string `json:"styles,omitempty" jsonschema:"title=Styles"`
	// LineNumbers enables line numbers in rule content.
	LineNumbers *bool `json:"lineNumbers,omitempty" jsonschema:"title=Line Numbers"`
	// Theme is a chroma style name, or one of "auto", "dark" or "light".
	Theme string `json:"theme,omitempty" jsonschema:"title=Theme"`
	// Width limits output width. Zero uses the terminal width.
	Width int `json:"width,omitempty" jsonschema:"title=Width,minimum=0"`
}

func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Theme == "" {
		c.Theme = "auto"
	}
	if c.LineNumbers == nil {
		c.LineNumbers = new(bool)
	}
}

// GetTheme registers any custom styles and returns the configured theme.
func (c *Config) GetTheme() (*Theme, error) {
	for _, name := range slices.Sorted(maps.Keys(c.Styles)) {
		err := Register(name, c.Styles[name])
		if err != nil {
			return nil, fmt.Errorf("style %q: %w", name, err)
		}
	}

	return NewTheme(c.Theme), nil
}
