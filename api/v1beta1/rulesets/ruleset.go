// Package rulesets provides the RuleSet document type.
package rulesets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rulecat/api/v1beta1"
	"github.com/macropower/rulecat/pkg/config"
	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen -type ruleset -o rulesets.v1beta1.json

const Kind = "RuleSet"

var (
	//go:embed rulesets.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for rule sets.
	ValidKinds = []string{Kind}

	// DefaultValidator validates rule sets against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/rulesets.v1beta1.json", schemaJSON)

	_ v1beta1.Object = (*RuleSet)(nil)
)

// RuleSet is a named list of rules, usually one technology per file.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleSet struct {
	// Name identifies the rule set. Defaults to the file name.
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
	// Rules in catalog order.
	Rules            []rule.Raw `json:"rules" jsonschema:"title=Rules,required"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates an empty [RuleSet].
func New() *RuleSet {
	return &RuleSet{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
}

// EnsureDefaults initializes nil fields to their default values.
func (rs *RuleSet) EnsureDefaults() {
	if rs.Rules == nil {
		rs.Rules = []rule.Raw{}
	}
}

// Batch returns the rules as a [rule.Batch] named after the rule set.
func (rs *RuleSet) Batch() rule.Batch {
	return rule.Batch{Source: rs.Name, Rules: rs.Rules}
}

func (rs RuleSet) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the rule set to YAML.
func (rs RuleSet) MarshalYAML() ([]byte, error) {
	type alias RuleSet

	b, err := yaml.Marshal(alias(rs))
	if err != nil {
		return nil, fmt.Errorf("marshal rule set: %w", err)
	}

	return b, nil
}

// Load validates and decodes a rule set document. An empty name is
// replaced by the base name of path without its extension.
func Load(path string, data []byte, opts ...config.LoaderOpt) (*RuleSet, error) {
	rs, err := config.NewLoaderFromBytes(data, New, DefaultValidator, opts...).ValidateAndLoad()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	err = rs.Check(Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if rs.Name == "" {
		rs.Name = NameFromPath(path)
	}

	return rs, nil
}

// NameFromPath returns the base name of path without its extension.
func NameFromPath(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}
