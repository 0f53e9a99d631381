package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/macropower/rulecat/api/v1beta1/configs"
	"github.com/macropower/rulecat/pkg/config"
	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/rule"
	"github.com/macropower/rulecat/pkg/source"
)

const fallbackWidth = 100

// app holds what every catalog command needs: the active configuration
// and the theme derived from it.
type app struct {
	cfg        *configs.Config
	theme      *render.Theme
	configPath string
}

// newApp loads the configuration. A missing config file is not an error;
// defaults are used instead.
func (ra *RootArgs) newApp() (*app, error) {
	configPath := ra.ConfigPath
	if configPath == "" {
		configPath = configs.GetPath()
	}

	a := &app{
		cfg:        configs.New(),
		theme:      render.Default,
		configPath: configPath,
	}

	cl, err := config.NewLoaderFromFile(configPath, configs.New, configs.DefaultValidator, config.WithThemeFromData())
	switch {
	case errors.Is(err, os.ErrNotExist) && ra.ConfigPath == "":
		slog.Debug("no config file, using defaults", slog.String("path", configPath))

	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)

	default:
		cfg, err := cl.ValidateAndLoad()
		if err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
		}

		err = cfg.Validate()
		if err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", configPath, err)
		}

		a.cfg = cfg
	}

	a.theme, err = a.cfg.Render.GetTheme()
	if err != nil {
		return nil, fmt.Errorf("load theme: %w", err)
	}

	return a, nil
}

// catalog builds the catalog selected by the configuration.
func (a *app) catalog(ctx context.Context) (*rule.Catalog, error) {
	c, err := source.Build(ctx, a.cfg.Catalog, source.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return c, nil
}

// renderer creates a renderer for w. Highlighting is only enabled for
// terminals.
func (a *app) renderer(w io.Writer, opts ...render.Option) *render.Renderer {
	tty := isTerminal(w)

	width := a.cfg.Render.Width
	if width == 0 {
		width = terminalWidth(w)
	}

	base := []render.Option{
		render.WithWidth(width),
		render.WithHighlight(tty),
		render.WithContentLineNumbers(*a.cfg.Render.LineNumbers),
	}

	return render.NewRenderer(w, a.theme, append(base, opts...)...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallbackWidth
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}

	return width
}

// slugCompletion completes rule or section slugs for the first argument.
func slugCompletion(
	ra *RootArgs,
	list func(*rule.Catalog) []cobra.Completion,
) func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, _ string) ([]cobra.Completion, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		a, err := ra.newApp()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		c, err := a.catalog(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return list(c), cobra.ShellCompDirectiveNoFileComp
	}
}

func sectionCompletions(c *rule.Catalog) []cobra.Completion {
	sections := c.Sections()

	completions := make([]cobra.Completion, 0, len(sections))
	for _, s := range sections {
		completions = append(completions, cobra.CompletionWithDesc(s.Slug, s.Tag))
	}

	return completions
}

func ruleCompletions(c *rule.Catalog) []cobra.Completion {
	rules := c.Rules()

	completions := make([]cobra.Completion, 0, len(rules))
	for _, r := range rules {
		completions = append(completions, cobra.CompletionWithDesc(r.Slug, r.Title))
	}

	return completions
}

// findRule resolves slug, including legacy aliases.
func findRule(c *rule.Catalog, slug string) (*rule.Rule, error) {
	r, ok := c.RuleBySlug(slug)
	if !ok {
		return nil, fmt.Errorf("rule %q: %w", slug, rule.ErrNotFound)
	}

	return r, nil
}
