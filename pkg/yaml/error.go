package yaml

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"

	"github.com/macropower/rulecat/pkg/render"
)

const defaultSourceLines = 4

func NewPathBuilder() *yaml.PathBuilder {
	return &yaml.PathBuilder{}
}

type ErrorWrapper struct {
	Opts []ErrorOpt
}

func NewErrorWrapper(opts ...ErrorOpt) *ErrorWrapper {
	return &ErrorWrapper{
		Opts: opts,
	}
}

// Wrap applies options to an [Error] found in err's chain.
// Other errors are returned unmodified.
func (ew *ErrorWrapper) Wrap(err error, opts ...ErrorOpt) error {
	if err == nil {
		return nil
	}

	var yamlErr *Error
	if errors.As(err, &yamlErr) {
		for _, opt := range ew.Opts {
			opt(yamlErr)
		}

		for _, opt := range opts {
			opt(yamlErr)
		}
	}

	return err
}

// Error is an error located in a YAML document, either by a [*yaml.Path]
// or a [*token.Token]. When located, the message is annotated with the
// surrounding source lines.
type Error struct {
	Err         error
	Path        *yaml.Path
	Token       *token.Token
	Theme       *render.Theme
	Formatter   string
	Source      []byte
	SourceLines int
}

func NewError(err error, opts ...ErrorOpt) *Error {
	e := &Error{
		Err:         err,
		SourceLines: defaultSourceLines,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

type ErrorOpt func(e *Error)

func WithSourceLines(lines int) ErrorOpt {
	return func(e *Error) {
		e.SourceLines = lines
	}
}

func WithPath(path *yaml.Path) ErrorOpt {
	return func(e *Error) {
		e.Path = path
	}
}

func WithToken(tk *token.Token) ErrorOpt {
	return func(e *Error) {
		e.Token = tk
	}
}

func WithTheme(t *render.Theme) ErrorOpt {
	return func(e *Error) {
		e.Theme = t
	}
}

func WithFormatter(formatter string) ErrorOpt {
	return func(e *Error) {
		e.Formatter = formatter
	}
}

func WithSource(source []byte) ErrorOpt {
	return func(e *Error) {
		e.Source = source
	}
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) Error() string {
	if e.Err == nil {
		return ""
	}
	if e.Path == nil && e.Token == nil {
		return e.Err.Error()
	}

	errMsg, srcErr := e.annotateSource()
	if srcErr != nil {
		slog.Debug("annotate source",
			slog.Any("error", srcErr),
		)

		if e.Path == nil {
			line, col, _, _ := tokenPosition(e.Token)

			return fmt.Sprintf("[%d:%d] %v", line, col+1, e.Err)
		}

		return fmt.Sprintf("error at %s: %v", e.Path.String(), e.Err)
	}

	return errMsg
}

// Line returns the one-based line of the error, or zero if unknown.
func (e Error) Line() int {
	tk, err := e.token()
	if err != nil {
		return 0
	}

	line, _, _, _ := tokenPosition(tk)

	return line
}

func (e Error) token() (*token.Token, error) {
	if e.Token != nil {
		return e.Token, nil
	}
	if e.Path == nil || len(e.Source) == 0 {
		return nil, errors.New("no source to locate path")
	}

	return tokenFromPath(e.Source, e.Path)
}

func (e Error) annotateSource() (string, error) {
	tk, err := e.token()
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}

	errLine, errCol, _, _ := tokenPosition(tk)
	errMsg := fmt.Sprintf("[%d:%d] %v:", errLine, errCol+1, e.Err)

	src := e.Source
	if len(src) == 0 {
		src = sourceFromTokens(tk)
	}

	errSource := lipgloss.NewStyle().
		PaddingTop(1).
		Render(e.highlight(src, tk))

	return fmt.Sprintf("%s\n%s", errMsg, errSource), nil
}

func (e Error) highlight(src []byte, tk *token.Token) string {
	errStartLine, errStartCol, errEndLine, errEndCol := tokenPosition(tk)

	content, firstLine := sourceWindow(src, errStartLine, e.SourceLines)

	t := e.Theme
	if t == nil {
		t = render.Default
	}

	opts := []render.ChromaOpt{
		render.WithLineNumbers(true),
		render.WithInitialLineNumber(firstLine),
	}
	if e.Formatter != "" {
		opts = append(opts, render.WithFormatter(e.Formatter))
	}

	cr := render.NewChromaRenderer(t, "yaml", opts...)

	span := render.Span{
		StartLine: errStartLine - firstLine,
		StartCol:  errStartCol,
		EndLine:   errEndLine - firstLine,
		EndCol:    errEndCol,
	}
	if e.Path != nil {
		// Path lookups point at a key; mark the rest of its line.
		span.EndLine = span.StartLine
		span.EndCol = math.MaxInt
	}

	cr.SetError(span)

	out, err := cr.Render(content, 0)
	if err != nil {
		return fmt.Sprintf("error rendering source: %v", err)
	}

	return out
}

// sourceWindow returns up to n lines on either side of the one-based line,
// and the number of the first returned line.
func sourceWindow(src []byte, line, n int) (string, int) {
	lines := strings.Split(strings.TrimRight(string(src), "\n"), "\n")

	first := max(line-n, 1)
	last := min(line+n, len(lines))
	if first > last {
		return "", first
	}

	return strings.Join(lines[first-1:last], "\n"), first
}

// sourceFromTokens rebuilds a document from the token stream containing tk.
func sourceFromTokens(tk *token.Token) []byte {
	for tk.Prev != nil {
		tk = tk.Prev
	}

	var b strings.Builder
	for ; tk != nil; tk = tk.Next {
		b.WriteString(tk.Origin)
	}

	return []byte(b.String())
}

func tokenFromPath(source []byte, path *yaml.Path) (*token.Token, error) {
	file, err := parser.ParseBytes(source, 0)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	node, err := path.FilterFile(file)
	if err != nil {
		return nil, fmt.Errorf("filter by path: %w", err)
	}

	// FilterFile returns the value node; point at the key instead.
	if keyToken := findKeyToken(file, path); keyToken != nil {
		return keyToken, nil
	}

	return node.GetToken(), nil
}

// findKeyToken returns the key token for path in its parent mapping.
func findKeyToken(file *ast.File, path *yaml.Path) *token.Token {
	pathStr := path.String()

	lastDot := strings.LastIndex(pathStr, ".")
	lastBracket := strings.LastIndex(pathStr, "[")

	if lastDot == -1 || lastDot <= lastBracket {
		return nil
	}

	parentPath, err := yaml.PathString(pathStr[:lastDot])
	if err != nil {
		return nil
	}

	parentNode, err := parentPath.FilterFile(file)
	if err != nil {
		return nil
	}

	mapping, ok := parentNode.(*ast.MappingNode)
	if !ok {
		return nil
	}

	key := pathStr[lastDot+1:]
	for _, val := range mapping.Values {
		if val.Key.String() == key {
			return val.Key.GetToken()
		}
	}

	return nil
}

// tokenPosition returns one-based lines and zero-based columns as
// (startLine, startCol, endLine, endCol).
//
//nolint:revive // Function-result-limit, fine for coordinates.
func tokenPosition(tk *token.Token) (int, int, int, int) {
	if tk == nil {
		return 0, 0, 0, 0
	}

	startLine := tk.Position.Line
	endLine := startLine
	startCol := tk.Position.Column - 1

	var endCol int
	if tk.Next == nil {
		endCol = len(tk.Value) + startCol
	} else {
		endLine = tk.Next.Position.Line
		endCol = tk.Next.Position.Column - 1
	}

	return startLine, startCol, endLine, endCol
}
