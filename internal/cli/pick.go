package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/macropower/rulecat/pkg/log"
	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/rule"
)

type PickArgs struct {
	*RootArgs

	Raw bool
}

func NewPickCmd(ra *RootArgs) *cobra.Command {
	args := &PickArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose a section and rule interactively, then show it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := args.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			// The form owns the terminal, so logs are held until it exits.
			logBuf := log.NewBuffer(log.DefaultBufferLimit)
			logHandler, err := log.CreateHandlerWithStrings(logBuf, args.LogLevel, args.LogFormat)
			if err != nil {
				return fmt.Errorf("create log handler: %w", err)
			}

			prevLogger := slog.Default()
			slog.SetDefault(slog.New(logHandler))

			form, picked := newPickForm(c, a.theme)
			err = form.
				WithInput(cmd.InOrStdin()).
				WithOutput(cmd.ErrOrStderr()).
				RunWithContext(cmd.Context())

			slog.SetDefault(prevLogger)
			flushLogs(cmd.ErrOrStderr(), logBuf)

			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("pick rule: %w", err)
			}

			r, err := findRule(c, *picked)
			if err != nil {
				return err
			}

			return showRule(cmd.OutOrStdout(), a.renderer(cmd.OutOrStdout()), r, args.Raw)
		},
	}

	cmd.Flags().BoolVar(&args.Raw, "raw", false, "Print the rule content only")

	bindEnvVars(cmd)

	return cmd
}

// newPickForm builds a two step form: a section, then one of its rules.
// Sections are chosen by tag, since distinct tags may share a slug.
// The returned pointer holds the chosen rule slug once the form completes.
func newPickForm(c *rule.Catalog, t *render.Theme) (*huh.Form, *string) {
	var sectionTag, ruleSlug string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Section").
				Description("Sections are ordered by popularity.").
				Options(sectionOptions(c)...).
				Filtering(true).
				Value(&sectionTag),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				TitleFunc(func() string {
					return "Rules in " + sectionTag
				}, &sectionTag).
				OptionsFunc(func() []huh.Option[string] {
					return ruleOptions(c, sectionTag)
				}, &sectionTag).
				Filtering(true).
				Value(&ruleSlug),
		),
	).WithTheme(render.HuhTheme(t))

	return form, &ruleSlug
}

func sectionOptions(c *rule.Catalog) []huh.Option[string] {
	sections := c.Sections()

	opts := make([]huh.Option[string], 0, len(sections))
	for _, s := range sections {
		opts = append(opts, huh.NewOption(fmt.Sprintf("%s (%d)", s.Tag, s.Len()), s.Tag))
	}

	return opts
}

func ruleOptions(c *rule.Catalog, tag string) []huh.Option[string] {
	s, ok := c.SectionByTag(tag)
	if !ok {
		return nil
	}

	opts := make([]huh.Option[string], 0, len(s.Rules))
	for _, r := range s.Rules {
		opts = append(opts, huh.NewOption(r.Title, r.Slug))
	}

	return opts
}

func flushLogs(w io.Writer, buf *log.Buffer) {
	if buf.Dropped() > 0 {
		slog.Debug("flush logs to console",
			slog.Int("count", buf.Len()),
			slog.Int("dropped", buf.Dropped()),
		)
	}

	_, err := buf.WriteTo(w)
	if err != nil {
		panic(err)
	}
}
