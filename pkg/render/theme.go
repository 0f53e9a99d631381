package render

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const Ellipsis = "…"

var (
	ErrInvalidName    = errors.New("invalid style name")
	ErrRegisterStyles = errors.New("register styles")
	ErrUnknownToken   = errors.New("unknown token type")
)

var Default = NewTheme("github")

// Theme holds the lipgloss styles used for terminal output, all derived
// from a single chroma style so that highlighted content and chrome match.
type Theme struct {
	ErrorStyle       lipgloss.Style
	ErrorTitleStyle  lipgloss.Style
	GenericTextStyle lipgloss.Style
	HeadingStyle     lipgloss.Style
	LineNumberStyle  lipgloss.Style
	LogoStyle        lipgloss.Style
	ResultTitleStyle lipgloss.Style
	SelectedStyle    lipgloss.Style
	SubtleStyle      lipgloss.Style
	TagStyle         lipgloss.Style

	ChromaStyle *chroma.Style
	Name        string
	Ellipsis    string
}

// NewTheme creates a [Theme] from a chroma style name. The names "auto",
// "dark" and "light" pick a GitHub style matching the terminal background.
func NewTheme(name string) *Theme {
	style := newChromaStyle(name)

	var (
		genericStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Background))

		selectedStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.NameTag))

		subtleStyle = lipgloss.NewStyle().
				Foreground(style.lipglossFromToken(chroma.Comment))
	)

	return &Theme{
		ErrorStyle: lipgloss.NewStyle().
			Foreground(style.lipglossFromToken(chroma.GenericDeleted)).
			Underline(true),
		ErrorTitleStyle: genericStyle.
			Background(style.lipglossFromToken(chroma.GenericDeleted)),
		GenericTextStyle: genericStyle,
		HeadingStyle:     selectedStyle.Bold(true),
		LineNumberStyle:  subtleStyle,
		LogoStyle: lipgloss.NewStyle().
			Foreground(style.lipglossFromTokenBg(chroma.Background)).
			Background(style.lipglossFromToken(chroma.NameTag)).
			Bold(true),
		ResultTitleStyle: genericStyle.
			Background(style.lipglossFromToken(chroma.GenericInserted)),
		SelectedStyle: selectedStyle,
		SubtleStyle:   subtleStyle,
		TagStyle: lipgloss.NewStyle().
			Foreground(style.lipglossFromTokenWithFactor(chroma.NameTag, 0.3)),

		ChromaStyle: style.style,
		Name:        style.style.Name,
		Ellipsis:    Ellipsis,
	}
}

// Register adds a chroma style so that it can be selected by name.
// Entries are keyed by chroma token type names, e.g. "Comment".
func Register(name string, entries map[string]string) error {
	if name == "" {
		return ErrInvalidName
	}

	styleEntries := chroma.StyleEntries{}
	for k, v := range entries {
		tt, err := chroma.TokenTypeString(k)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownToken, k)
		}

		styleEntries[tt] = v
	}

	customStyle, err := chroma.NewStyle(name, styleEntries)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterStyles, err)
	}

	styles.Register(customStyle)

	return nil
}

type chromaStyle struct {
	style *chroma.Style
}

func newChromaStyle(name string) chromaStyle {
	s := styles.Get(styleName(name))
	if s == nil {
		s = styles.Fallback
	}

	return chromaStyle{style: s}
}

func (cs chromaStyle) lipglossFromToken(c chroma.TokenType) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Colour.String()) //nolint:misspell // Chroma naming.
}

func (cs chromaStyle) lipglossFromTokenBg(c chroma.TokenType) lipgloss.Color {
	s := cs.style.Get(c)

	return lipgloss.Color(s.Background.String())
}

func (cs chromaStyle) lipglossFromTokenWithFactor(c chroma.TokenType, factor float64) lipgloss.Color {
	s := cs.style.Get(c)

	sc := s.Colour.BrightenOrDarken(factor) //nolint:misspell // Chroma naming.

	return lipgloss.Color(sc.String())
}

func styleName(name string) string {
	switch name {
	case "dark":
		return "github-dark"
	case "light":
		return "github"
	case "auto", "":
		return defaultStyleName()
	default:
		return name
	}
}

func defaultStyleName() string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ""
	}
	if termenv.HasDarkBackground() {
		return "github-dark"
	}

	return "github"
}
