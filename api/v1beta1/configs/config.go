// Package configs provides the Configuration document type.
package configs

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	_ "embed"

	"github.com/macropower/rulecat/api"
	"github.com/macropower/rulecat/api/v1beta1"
	"github.com/macropower/rulecat/pkg/install"
	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/source"
	"github.com/macropower/rulecat/pkg/yaml"
)

//go:generate go run ../../../internal/schemagen -type config -o configs.v1beta1.json

const Kind = "Configuration"

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed configs.v1beta1.json
	schemaJSON []byte

	// ValidKinds contains the valid kind values for configurations.
	ValidKinds = []string{Kind}

	// DefaultValidator validates configuration against the JSON schema.
	DefaultValidator = yaml.MustNewValidator("/configs.v1beta1.json", schemaJSON)

	_ v1beta1.Object = (*Config)(nil)
)

// Config represents the rulecat configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	Catalog          *source.Config  `json:"catalog,omitempty" jsonschema:"title=Catalog"`
	Render           *render.Config  `json:"render,omitempty"  jsonschema:"title=Render"`
	Install          *install.Config `json:"install,omitempty" jsonschema:"title=Install"`
	Server           *ServerConfig   `json:"server,omitempty"  jsonschema:"title=Server"`
	v1beta1.TypeMeta `json:",inline"`
}

// ServerConfig contains listen addresses for the serve command.
type ServerConfig struct {
	// HTTP is the address of the JSON API. Empty disables it.
	HTTP string `json:"http,omitempty" jsonschema:"title=HTTP Address"`
	// MCP is the address of the MCP streamable HTTP endpoint. Empty serves
	// MCP over stdio when enabled.
	MCP string `json:"mcp,omitempty" jsonschema:"title=MCP Address"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{
		TypeMeta: v1beta1.TypeMeta{
			APIVersion: v1beta1.APIVersion,
			Kind:       Kind,
		},
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes nil fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.Catalog == nil {
		c.Catalog = source.NewConfig()
	} else {
		c.Catalog.EnsureDefaults()
	}

	if c.Render == nil {
		c.Render = render.NewConfig()
	} else {
		c.Render.EnsureDefaults()
	}

	if c.Install == nil {
		c.Install = install.NewConfig()
	} else {
		c.Install.EnsureDefaults()
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
}

// Validate checks values the schema cannot express.
func (c *Config) Validate() error {
	return errors.Join(
		c.TypeMeta.Check(Kind),
		wrap("catalog", c.Catalog.Validate()),
		wrap("install", c.Install.Validate()),
	)
}

func wrap(name string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ExtendSchemaWithEnums(jss, v1beta1.ValidAPIVersions, ValidKinds)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := yaml.Marshal(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the embedded default config.yaml to path. The
// returned bool reports whether the file was written.
func WriteDefault(path string, force bool) (bool, error) {
	written, err := api.WriteDefaultFile(path, defaultConfigYAML, force, "configuration")
	if err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}

	return written, nil
}

// DefaultYAML returns the embedded default configuration.
func DefaultYAML() []byte {
	return defaultConfigYAML
}

// Schema returns the embedded JSON schema.
func Schema() []byte {
	return schemaJSON
}

// GetPath returns the path to the user configuration file.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}
