package config

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/macropower/rulecat/api"
	"github.com/macropower/rulecat/api/v1beta1"
	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/yaml"
)

var (
	renderSectionRe = regexp.MustCompile(`(?m)^render:\s*$((?:\n[ \t]+.*)*)`)
	themeRe         = regexp.MustCompile(`\n[ \t]+theme:\s*(?:"([^"#\n]+)"|'([^'#\n]+)'|([^\s#\n]+))`)
)

// Validator validates decoded data against a schema.
type Validator interface {
	Validate(data any) error
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*loaderOptions)

type loaderOptions struct {
	validator    Validator
	extractTheme bool
}

// WithValidator replaces the default validator. A nil validator disables
// schema validation.
func WithValidator(v Validator) LoaderOpt {
	return func(o *loaderOptions) {
		o.validator = v
	}
}

// WithThemeFromData styles errors with the theme named at render.theme.
func WithThemeFromData() LoaderOpt {
	return func(o *loaderOptions) {
		o.extractTheme = true
	}
}

// Loader validates and decodes a document of type T.
type Loader[T v1beta1.Object] struct {
	validator Validator
	newFunc   func() T
	theme     *render.Theme
	yamlError *yaml.ErrorWrapper
	data      []byte
}

// NewLoaderFromBytes creates a [Loader] for data. newFunc constructs an
// empty T, e.g. configs.New.
func NewLoaderFromBytes[T v1beta1.Object](
	data []byte,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) *Loader[T] {
	options := &loaderOptions{
		validator: defaultValidator,
	}
	for _, opt := range opts {
		opt(options)
	}

	t := render.Default
	if options.extractTheme {
		t = themeFromData(data)
	}

	return &Loader[T]{
		data:      data,
		newFunc:   newFunc,
		validator: options.validator,
		theme:     t,
		yamlError: yaml.NewErrorWrapper(
			yaml.WithTheme(t),
			yaml.WithSource(data),
			yaml.WithSourceLines(4),
		),
	}
}

// NewLoaderFromFile creates a [Loader] for the file at path.
func NewLoaderFromFile[T v1beta1.Object](
	path string,
	newFunc func() T,
	defaultValidator Validator,
	opts ...LoaderOpt,
) (*Loader[T], error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	return NewLoaderFromBytes(data, newFunc, defaultValidator, opts...), nil
}

// Validate validates the data against the schema.
func (l *Loader[T]) Validate() error {
	if l.validator == nil {
		return nil
	}

	var doc any

	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(&doc)
	if err != nil {
		return l.yamlError.Wrap(err)
	}

	return l.yamlError.Wrap(l.validator.Validate(doc))
}

// Load decodes the data and applies defaults. It does not validate.
//
//nolint:ireturn // Generic type parameter.
func (l *Loader[T]) Load() (T, error) {
	obj := l.newFunc()

	err := yaml.NewDecoder(bytes.NewReader(l.data)).Decode(obj)
	if err != nil {
		var zero T

		return zero, l.yamlError.Wrap(err)
	}

	obj.EnsureDefaults()

	return obj, nil
}

// ValidateAndLoad calls [Loader.Validate] and then [Loader.Load].
//
//nolint:ireturn // Generic type parameter.
func (l *Loader[T]) ValidateAndLoad() (T, error) {
	err := l.Validate()
	if err != nil {
		var zero T

		return zero, err
	}

	return l.Load()
}

// GetTheme returns the theme used for error formatting.
func (l *Loader[T]) GetTheme() *render.Theme {
	return l.theme
}

func themeFromData(data []byte) *render.Theme {
	var name string

	path := yaml.NewPathBuilder().Root().Child("render").Child("theme").Build()

	err := path.Read(bytes.NewReader(data), &name)
	if err == nil && name != "" {
		return render.NewTheme(name)
	}

	// The document may not parse; look for the value directly.
	name = themeWithRegex(data)
	if name != "" {
		slog.Debug("read theme with regex fallback", slog.String("theme", name))

		return render.NewTheme(name)
	}

	return render.Default
}

// themeWithRegex finds "theme: <value>" in an indented block below a
// top-level "render:" key.
func themeWithRegex(data []byte) string {
	section := renderSectionRe.FindSubmatch(data)
	if len(section) < 2 {
		return ""
	}

	m := themeRe.FindSubmatch(section[1])
	for i := 1; i < len(m); i++ {
		if len(m[i]) > 0 {
			return strings.TrimSpace(string(m[i]))
		}
	}

	return ""
}
