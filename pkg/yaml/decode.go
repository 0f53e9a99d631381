package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/goccy/go-yaml"
)

// DisallowUnknownField makes decoding fail on fields missing from the target.
var DisallowUnknownField = yaml.DisallowUnknownField

type Decoder struct {
	d *yaml.Decoder
}

func NewDecoder(r io.Reader, opts ...yaml.DecodeOption) *Decoder {
	return &Decoder{
		d: yaml.NewDecoder(r, append([]yaml.DecodeOption{yaml.AllowDuplicateMapKey()}, opts...)...),
	}
}

func (d *Decoder) Decode(v any) error {
	err := d.d.Decode(v)
	if err == nil {
		return nil
	}

	var yamlErr yaml.Error
	if errors.As(err, &yamlErr) {
		return &Error{
			Err:         errors.New(yamlErr.GetMessage()),
			Token:       yamlErr.GetToken(),
			SourceLines: defaultSourceLines,
		}
	}

	//nolint:wrapcheck // Return the original error if it's not a [yaml.Error].
	return err
}

// Unmarshal decodes a single document. Errors carry the source so that they
// can be annotated.
func Unmarshal(data []byte, v any, opts ...yaml.DecodeOption) error {
	err := NewDecoder(bytes.NewReader(data), opts...).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var yamlErr *Error
	if errors.As(err, &yamlErr) {
		yamlErr.Source = data
	}

	return err
}
