package yaml

import (
	"bytes"
	"io"
	"slices"

	"github.com/goccy/go-yaml"
)

// DefaultEncoderOptions are used by [NewEncoder] and [Marshal].
var DefaultEncoderOptions = []yaml.EncodeOption{
	yaml.Indent(2),
	yaml.IndentSequence(true),
}

type Encoder struct {
	e *yaml.Encoder
}

func NewEncoder(w io.Writer, opts ...yaml.EncodeOption) *Encoder {
	return &Encoder{
		e: yaml.NewEncoder(w, slices.Concat(DefaultEncoderOptions, opts)...),
	}
}

func (e *Encoder) Encode(v any) error {
	return e.e.Encode(v) //nolint:wrapcheck // Return the original error.
}

func (e *Encoder) Close() error {
	return e.e.Close() //nolint:wrapcheck // Return the original error.
}

// Marshal encodes v with [DefaultEncoderOptions].
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	err := NewEncoder(&buf).Encode(v)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
