// Package v1beta1 contains the v1beta1 API types for rulecat documents.
package v1beta1

import (
	"errors"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the current API version for all rulecat kinds.
const APIVersion = "rulecat.jacobcolvin.com/v1beta1"

// ValidAPIVersions contains all valid API versions.
var ValidAPIVersions = []string{APIVersion}

var (
	ErrUnsupportedAPIVersion = errors.New("unsupported apiVersion")
	ErrUnexpectedKind        = errors.New("unexpected kind")
)

// TypeMeta contains the API version and kind common to all documents.
type TypeMeta struct {
	// APIVersion specifies the API version of the document.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version,required"`
	// Kind defines the type of document.
	Kind string `json:"kind" jsonschema:"title=Kind,required"`
}

func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// Check returns an error unless the API version is known and the kind
// equals kind.
func (tm TypeMeta) Check(kind string) error {
	if !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("%w %q", ErrUnsupportedAPIVersion, tm.APIVersion)
	}
	if tm.Kind != kind {
		return fmt.Errorf("%w %q, want %q", ErrUnexpectedKind, tm.Kind, kind)
	}

	return nil
}

// Object is implemented by all document types.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ExtendSchemaWithEnums restricts the apiVersion and kind properties of a
// JSON schema to the given values.
func ExtendSchemaWithEnums(jss *jsonschema.Schema, apiVersions, kinds []string) {
	setConsts(jss, "apiVersion", "API Version", apiVersions)
	setConsts(jss, "kind", "Kind", kinds)
}

func setConsts(jss *jsonschema.Schema, prop, title string, values []string) {
	s, ok := jss.Properties.Get(prop)
	if !ok {
		panic(prop + " property not found in schema")
	}

	for _, v := range values {
		s.OneOf = append(s.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: v,
			Title: title,
		})
	}

	_, _ = jss.Properties.Set(prop, s)
}
