package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
	"github.com/muesli/termenv"
	"github.com/sahilm/fuzzy"

	"github.com/macropower/rulecat/pkg/rule"
)

const wrapOnCharacters = " /-"

// Span is a region of content, in zero-based line and column positions.
// End positions are exclusive.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// ChromaRenderer highlights source text with chroma and decorates it with
// line numbers, an error span and search matches.
type ChromaRenderer struct {
	lexer             chroma.Lexer
	formatter         chroma.Formatter
	theme             *Theme
	errSpan           *Span
	searchTerm        string
	initialLineNumber int
	lineNumbers       bool
}

// ChromaOpt configures a [ChromaRenderer].
type ChromaOpt func(*ChromaRenderer)

// WithLineNumbers enables line numbers.
func WithLineNumbers(enabled bool) ChromaOpt {
	return func(cr *ChromaRenderer) {
		cr.lineNumbers = enabled
	}
}

// WithInitialLineNumber sets the number of the first rendered line.
func WithInitialLineNumber(n int) ChromaOpt {
	return func(cr *ChromaRenderer) {
		cr.initialLineNumber = n
	}
}

// WithFormatter overrides the chroma formatter chosen from the terminal's
// color profile. Mostly useful in tests.
func WithFormatter(name string) ChromaOpt {
	return func(cr *ChromaRenderer) {
		cr.formatter = formatters.Get(name)
	}
}

// WithSearchTerm highlights fuzzy matches of the term on each line.
func WithSearchTerm(term string) ChromaOpt {
	return func(cr *ChromaRenderer) {
		cr.searchTerm = term
	}
}

// NewChromaRenderer creates a renderer for the named chroma lexer, e.g.
// "markdown", "yaml" or "diff". Unknown lexers fall back to plain text.
func NewChromaRenderer(t *Theme, lexerName string, opts ...ChromaOpt) *ChromaRenderer {
	lexer := lexers.Get(lexerName)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	cr := &ChromaRenderer{
		theme:             t,
		lexer:             chroma.Coalesce(lexer),
		formatter:         formatters.Get(FormatterName(termenv.ColorProfile())),
		initialLineNumber: 1,
	}
	for _, opt := range opts {
		opt(cr)
	}

	return cr
}

// FormatterName maps a terminal color profile to a chroma formatter.
func FormatterName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal8"
	}

	return "noop"
}

// SetError marks a span to be drawn with the theme's error style. Lines are
// relative to the rendered content.
func (cr *ChromaRenderer) SetError(s Span) {
	cr.errSpan = &s
}

// Render highlights content and wraps lines to width. A width of zero or
// less disables wrapping.
func (cr *ChromaRenderer) Render(content string, width int) (string, error) {
	iterator, err := cr.lexer.Tokenise(nil, content)
	if err != nil {
		return "", fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = cr.formatter.Format(buf, cr.theme.ChromaStyle, iterator)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	styled := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	plain := strings.Split(strings.TrimRight(content, "\n"), "\n")

	var out strings.Builder

	for i, line := range styled {
		if i < len(plain) {
			line = cr.decorate(line, plain[i], i)
		}

		if cr.lineNumbers {
			out.WriteString(cr.formatLineWithNumber(line, cr.initialLineNumber+i, width))
		} else {
			out.WriteString(formatLine(line, width))
		}

		if i+1 < len(styled) {
			out.WriteByte('\n')
		}
	}

	return out.String(), nil
}

// decorate redraws a line when it carries an error span or search matches.
// Decorated lines lose their syntax colors.
func (cr *ChromaRenderer) decorate(styled, plain string, lineIdx int) string {
	marks := cr.errorColumns(plain, lineIdx)
	matches := cr.matchColumns(plain)

	if len(marks) == 0 && len(matches) == 0 {
		return styled
	}

	var b strings.Builder

	for i, r := range []rune(plain) {
		switch {
		case marks[i]:
			b.WriteString(cr.theme.ErrorStyle.Render(string(r)))
		case matches[i]:
			b.WriteString(cr.theme.SelectedStyle.Underline(true).Bold(true).Render(string(r)))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func (cr *ChromaRenderer) errorColumns(plain string, lineIdx int) map[int]bool {
	s := cr.errSpan
	if s == nil || lineIdx < s.StartLine || lineIdx > s.EndLine {
		return nil
	}

	n := len([]rune(plain))
	start, end := 0, n

	if lineIdx == s.StartLine {
		start = s.StartCol
	}
	if lineIdx == s.EndLine {
		end = min(s.EndCol, n)
	}

	marks := map[int]bool{}
	for i := max(start, 0); i < end; i++ {
		marks[i] = true
	}

	return marks
}

func (cr *ChromaRenderer) matchColumns(plain string) map[int]bool {
	if cr.searchTerm == "" {
		return nil
	}

	term := rule.Normalize(cr.searchTerm)
	line := rule.Normalize(plain)

	found := fuzzy.Find(term, []string{line})
	if len(found) == 0 {
		return nil
	}

	marks := map[int]bool{}
	for _, byteIdx := range found[0].MatchedIndexes {
		if runeIdx := byteIndexToRuneIndex(line, byteIdx); runeIdx >= 0 {
			marks[runeIdx] = true
		}
	}

	return marks
}

func byteIndexToRuneIndex(s string, byteIdx int) int {
	if byteIdx >= len(s) {
		return -1
	}

	runeIdx := 0
	for i := range s {
		if i == byteIdx {
			return runeIdx
		}
		if i > byteIdx {
			return -1
		}
		runeIdx++
	}

	return -1
}

func formatLine(line string, width int) string {
	if width <= 0 {
		return line
	}

	return lipgloss.NewStyle().MaxWidth(width).Render(cellbuf.Wrap(line, width, wrapOnCharacters))
}

func (cr *ChromaRenderer) formatLineWithNumber(line string, lineNum, width int) string {
	const gutter = 6

	lineNumberText := fmt.Sprintf("%4d  ", lineNum)
	if width <= 0 {
		return cr.theme.LineNumberStyle.Render(lineNumberText) + line
	}

	width = max(1, width-gutter)
	wrapped := strings.Split(cellbuf.Wrap(line, width, wrapOnCharacters), "\n")

	for i, ln := range wrapped {
		prefix := "   -  "
		if i == 0 {
			prefix = lineNumberText
		}

		wrapped[i] = cr.theme.LineNumberStyle.Render(prefix) + ansi.Truncate(ln, width, "")
	}

	return strings.Join(wrapped, "\n")
}

// Highlight renders content and falls back to the raw input on error.
func Highlight(t *Theme, lexerName, content string, opts ...ChromaOpt) string {
	out, err := NewChromaRenderer(t, lexerName, opts...).Render(content, 0)
	if err != nil {
		slog.Debug("highlight failed", slog.String("lexer", lexerName), slog.Any("error", err))

		return content
	}

	return out
}
