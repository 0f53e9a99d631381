package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrSchemaValidation is wrapped by errors returned from [Validator.Validate].
var ErrSchemaValidation = errors.New("schema validation")

var printer = message.NewPrinter(language.English)

// Validator validates data against a JSON schema.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new [Validator] with the provided JSON schema data.
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var schema any

	err := json.Unmarshal(schemaData, &schema)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate validates decoded data against the schema. Failures are returned
// as an [*Error] located at the most specific failing path.
func (s *Validator) Validate(data any) error {
	err := s.schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("%w: %w", ErrSchemaValidation, err)
	}

	cause := mostSpecificCause(validationErr)

	return &Error{
		Err:         fmt.Errorf("%w: %s", ErrSchemaValidation, cause.ErrorKind.LocalizedString(printer)),
		Path:        pathFromLocation(cause.InstanceLocation),
		SourceLines: defaultSourceLines,
	}
}

// ValidateBytes decodes a YAML document and validates it. Returned errors
// carry the source for annotation.
func (s *Validator) ValidateBytes(data []byte) error {
	var v any

	err := Unmarshal(data, &v)
	if err != nil {
		return err
	}

	err = s.Validate(v)

	var yamlErr *Error
	if errors.As(err, &yamlErr) {
		yamlErr.Source = data
	}

	return err
}

// mostSpecificCause returns the cause with the longest InstanceLocation.
// Earlier causes win ties.
func mostSpecificCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	best := err

	for _, cause := range err.Causes {
		candidate := mostSpecificCause(cause)
		if len(candidate.InstanceLocation) > len(best.InstanceLocation) {
			best = candidate
		}
	}

	return best
}

func pathFromLocation(location []string) *yaml.Path {
	current := NewPathBuilder().Root()

	for _, part := range location {
		index, err := strconv.ParseUint(part, 10, 0)
		if err == nil {
			current = current.Index(uint(index))
		} else {
			current = current.Child(part)
		}
	}

	return current.Build()
}
