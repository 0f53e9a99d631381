package cli

import (
	"image/color"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/exp/charmtone"

	lipglossv1 "github.com/charmbracelet/lipgloss"

	"github.com/macropower/rulecat/api/v1beta1/configs"
	"github.com/macropower/rulecat/pkg/config"
	"github.com/macropower/rulecat/pkg/render"
)

// ColorSchemeFunc derives the help colors from the configured theme, or
// from the default theme when the config cannot be read. Flags are not
// parsed yet, so only $RULECAT_CONFIG can override the config path.
func ColorSchemeFunc(c lipgloss.LightDarkFunc) fang.ColorScheme {
	configPath, ok := os.LookupEnv(flagToEnvName("config"))
	if !ok || configPath == "" {
		configPath = configs.GetPath()
	}

	cl, err := config.NewLoaderFromFile(configPath, configs.New, configs.DefaultValidator, config.WithThemeFromData())
	if err != nil {
		return ThemeColorScheme(render.Default, c)
	}

	return ThemeColorScheme(cl.GetTheme(), c)
}

func ThemeColorScheme(t *render.Theme, c lipgloss.LightDarkFunc) fang.ColorScheme {
	return fang.ColorScheme{
		Base:           themeColor(t.GenericTextStyle.GetForeground()),
		Title:          themeColor(t.LogoStyle.GetBackground()),
		Codeblock:      c(charmtone.Salt, lipgloss.Color("#2F2E36")),
		Program:        themeColor(t.SelectedStyle.GetForeground()),
		Command:        themeColor(t.SelectedStyle.GetForeground()),
		DimmedArgument: themeColor(t.SubtleStyle.GetForeground()),
		Comment:        themeColor(t.SubtleStyle.GetForeground()),
		Flag:           themeColor(t.SelectedStyle.GetForeground()),
		Argument:       themeColor(t.GenericTextStyle.GetForeground()),
		Description:    themeColor(t.GenericTextStyle.GetForeground()),
		FlagDefault:    themeColor(t.TagStyle.GetForeground()),
		QuotedString:   themeColor(t.GenericTextStyle.GetForeground()),
		ErrorHeader: [2]color.Color{
			themeColor(t.ErrorTitleStyle.GetForeground()),
			themeColor(t.ErrorTitleStyle.GetBackground()),
		},
	}
}

// themeColor converts a theme color to a [color.Color]. Theme colors are
// hex strings taken from chroma styles.
func themeColor(c lipglossv1.TerminalColor) color.Color {
	hex, ok := c.(lipglossv1.Color)
	if !ok || hex == "" {
		return lipgloss.NoColor{}
	}

	return lipgloss.Color(string(hex))
}
