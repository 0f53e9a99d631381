package install

import (
	"errors"
	"path/filepath"
	"strings"
)

const (
	DefaultDir       = ".cursor/rules"
	DefaultExtension = ".mdc"
)

var ErrInvalidConfig = errors.New("invalid install config")

// Config controls where rules are installed within a project.
type Config struct {
	// Dir is the rules directory, relative to the project root.
	Dir string `json:"dir,omitempty" jsonschema:"title=Directory"`
	// Extension is appended to the rule slug to form the file name.
	Extension string `json:"extension,omitempty" jsonschema:"title=Extension,pattern=^\\.[A-Za-z0-9]+$"`
}

func NewConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
}

func (c *Config) Validate() error {
	if filepath.IsAbs(c.Dir) {
		return errors.Join(ErrInvalidConfig, errors.New("dir must be relative"))
	}
	if strings.HasPrefix(filepath.Clean(c.Dir), "..") {
		return errors.Join(ErrInvalidConfig, errors.New("dir must be inside the project"))
	}
	if !strings.HasPrefix(c.Extension, ".") {
		return errors.Join(ErrInvalidConfig, errors.New("extension must start with a dot"))
	}

	return nil
}
