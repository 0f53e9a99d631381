package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/indent"

	mansi "github.com/muesli/ansi"

	"github.com/macropower/rulecat/pkg/rule"
)

const (
	columnGap     = 2
	contentIndent = 2
)

// Renderer writes catalog data for terminal output.
type Renderer struct {
	w           io.Writer
	theme       *Theme
	searchTerm  string
	width       int
	lineNumbers bool
	highlight   bool
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithWidth sets the maximum line width. Zero disables truncation.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		r.width = width
	}
}

// WithContentLineNumbers adds line numbers to rule content.
func WithContentLineNumbers(enabled bool) Option {
	return func(r *Renderer) {
		r.lineNumbers = enabled
	}
}

// WithHighlight enables syntax highlighting of rule content.
func WithHighlight(enabled bool) Option {
	return func(r *Renderer) {
		r.highlight = enabled
	}
}

// WithSearch marks fuzzy matches of term in rule content.
func WithSearch(term string) Option {
	return func(r *Renderer) {
		r.searchTerm = term
	}
}

// NewRenderer creates a new [Renderer] writing to w.
func NewRenderer(w io.Writer, t *Theme, opts ...Option) *Renderer {
	if t == nil {
		t = Default
	}

	r := &Renderer{w: w, theme: t}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Sections writes a table of sections with their rule counts.
func (r *Renderer) Sections(sections []*rule.Section) error {
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{s.Slug, s.Tag, humanize.Comma(int64(s.Len()))})
	}

	return r.table([]string{"SLUG", "TAG", "RULES"}, rows)
}

// Rules writes a table of rules. The tags column is truncated to fit the
// configured width.
func (r *Renderer) Rules(rules []*rule.Rule) error {
	rows := make([][]string, 0, len(rules))
	for _, rl := range rules {
		rows = append(rows, []string{rl.Slug, rl.Title, strings.Join(rl.Tags, ", ")})
	}

	return r.table([]string{"SLUG", "TITLE", "TAGS"}, rows)
}

// Section writes a section heading followed by its rules.
func (r *Renderer) Section(s *rule.Section) error {
	heading := fmt.Sprintf("%s %s",
		r.theme.HeadingStyle.Render(s.Tag),
		r.theme.SubtleStyle.Render(fmt.Sprintf("(%s, %s)", s.Slug, pluralRules(s.Len()))),
	)

	_, err := fmt.Fprintf(r.w, "%s\n\n", heading)
	if err != nil {
		return fmt.Errorf("write section: %w", err)
	}

	return r.Rules(s.Rules)
}

// Rule writes the details of a single rule, followed by its content.
func (r *Renderer) Rule(rl *rule.Rule) error {
	var b strings.Builder

	b.WriteString(r.theme.HeadingStyle.Render(rl.Title))
	b.WriteByte('\n')
	b.WriteString(r.theme.SubtleStyle.Render(rl.Slug))
	if rl.Source != "" {
		b.WriteString(r.theme.SubtleStyle.Render(" · " + rl.Source))
	}
	b.WriteByte('\n')

	r.field(&b, "Tags", r.tags(rl.Tags))
	if len(rl.Libs) > 0 {
		r.field(&b, "Libs", strings.Join(rl.Libs, ", "))
	}
	if rl.Author != nil && rl.Author.Name != "" {
		author := rl.Author.Name
		if rl.Author.URL != nil && *rl.Author.URL != "" {
			author += " " + r.theme.SubtleStyle.Render("<"+*rl.Author.URL+">")
		}

		r.field(&b, "Author", author)
	}

	content, err := r.content(rl.Content)
	if err != nil {
		return err
	}

	b.WriteByte('\n')
	b.WriteString(indent.String(content, contentIndent))
	b.WriteByte('\n')

	_, err = io.WriteString(r.w, b.String())
	if err != nil {
		return fmt.Errorf("write rule: %w", err)
	}

	return nil
}

// Diff writes a unified diff. Nothing is written for an empty diff.
func (r *Renderer) Diff(diff string) error {
	if diff == "" {
		return nil
	}

	out := diff
	if r.highlight {
		out = Highlight(r.theme, "diff", diff)
	}

	_, err := fmt.Fprintln(r.w, strings.TrimRight(out, "\n"))
	if err != nil {
		return fmt.Errorf("write diff: %w", err)
	}

	return nil
}

func (r *Renderer) content(content string) (string, error) {
	if !r.highlight && !r.lineNumbers && r.searchTerm == "" {
		return content, nil
	}

	width := 0
	if r.width > 0 {
		width = max(1, r.width-contentIndent)
	}

	opts := []ChromaOpt{
		WithLineNumbers(r.lineNumbers),
		WithSearchTerm(r.searchTerm),
	}
	if !r.highlight {
		opts = append(opts, WithFormatter("noop"))
	}

	out, err := NewChromaRenderer(r.theme, "markdown", opts...).Render(content, width)
	if err != nil {
		return "", fmt.Errorf("render content: %w", err)
	}

	return out, nil
}

func (r *Renderer) field(b *strings.Builder, name, value string) {
	b.WriteString(r.theme.SelectedStyle.Render(name + ":"))
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}

func (r *Renderer) tags(tags []string) string {
	styled := make([]string, 0, len(tags))
	for _, t := range tags {
		styled = append(styled, r.theme.TagStyle.Render(t))
	}

	return strings.Join(styled, ", ")
}

// table writes rows aligned in columns. The last column is truncated when
// the line would exceed the configured width.
func (r *Renderer) table(header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = mansi.PrintableRuneWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], mansi.PrintableRuneWidth(cell))
		}
	}

	var b strings.Builder

	b.WriteString(r.row(header, widths, r.theme.SubtleStyle.Render))
	for _, row := range rows {
		b.WriteString(r.row(row, widths, nil))
	}

	_, err := io.WriteString(r.w, b.String())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func (r *Renderer) row(cells []string, widths []int, style func(...string) string) string {
	var b strings.Builder

	last := len(cells) - 1
	for i, cell := range cells {
		if i == last {
			if r.width > 0 {
				avail := max(1, r.width-ansi.StringWidth(b.String()))
				cell = ansi.Truncate(cell, avail, r.theme.Ellipsis)
			}

			b.WriteString(cell)

			break
		}

		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-mansi.PrintableRuneWidth(cell)+columnGap))
	}

	line := b.String()
	if style != nil {
		line = style(line)
	}

	return line + "\n"
}

func pluralRules(n int) string {
	if n == 1 {
		return "1 rule"
	}

	return humanize.Comma(int64(n)) + " rules"
}
