package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/macropower/rulecat/pkg/query"
	"github.com/macropower/rulecat/pkg/render"
	"github.com/macropower/rulecat/pkg/rule"
)

const defaultSearchLimit = 20

type SectionsArgs struct {
	*RootArgs

	Limit int
}

func NewSectionsCmd(ra *RootArgs) *cobra.Command {
	args := &SectionsArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "sections",
		Short: "List sections, one per tag, most popular first",
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

			sections := c.Sections()
			if args.Limit > 0 && args.Limit < len(sections) {
				sections = sections[:args.Limit]
			}

			return a.renderer(cmd.OutOrStdout()).Sections(sections)
		},
	}

	cmd.Flags().IntVarP(&args.Limit, "limit", "n", 0, "Maximum number of sections to list, 0 lists all")

	bindEnvVars(cmd)

	return cmd
}

func NewSectionCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "section <slug>",
		Short:             "List the rules in a section",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: slugCompletion(ra, sectionCompletions),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ra.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			s, ok := c.SectionBySlug(args[0])
			if !ok {
				return fmt.Errorf("section %q: %w", args[0], rule.ErrNotFound)
			}

			return a.renderer(cmd.OutOrStdout()).Section(s)
		},
	}

	return cmd
}

type RulesArgs struct {
	*RootArgs

	Where string
	Tag   string
}

func NewRulesCmd(ra *RootArgs) *cobra.Command {
	args := &RulesArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List rules in catalog order",
		Example: `  # Rules that use more than two libraries:
  rulecat rules --where 'rule.libs.size() > 2'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := args.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			filter, err := query.NewFilter(args.Where)
			if err != nil {
				return err
			}

			rules := filter.Apply(c.Rules())
			if args.Tag != "" {
				rules = withTag(rules, args.Tag)
			}

			return a.renderer(cmd.OutOrStdout()).Rules(rules)
		},
	}

	cmd.Flags().StringVar(&args.Where, "where", "", "CEL expression over the variable 'rule'")
	cmd.Flags().StringVar(&args.Tag, "tag", "", "Only list rules with this tag")

	bindEnvVars(cmd)

	return cmd
}

func withTag(rules []*rule.Rule, tag string) []*rule.Rule {
	var out []*rule.Rule
	for _, r := range rules {
		if r.HasTag(tag) {
			out = append(out, r)
		}
	}

	return out
}

type ShowArgs struct {
	*RootArgs

	Raw  bool
	Copy bool
}

func NewShowCmd(ra *RootArgs) *cobra.Command {
	args := &ShowArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:               "show <slug>",
		Short:             "Show a rule",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: slugCompletion(ra, ruleCompletions),
		RunE: func(cmd *cobra.Command, slugs []string) error {
			a, err := args.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			r, err := findRule(c, slugs[0])
			if err != nil {
				return err
			}

			if args.Copy {
				err = clipboard.WriteAll(r.Content)
				if err != nil {
					return fmt.Errorf("copy to clipboard: %w", err)
				}

				slog.Info("copied rule content", slog.String("slug", r.Slug))
			}

			return showRule(cmd.OutOrStdout(), a.renderer(cmd.OutOrStdout()), r, args.Raw)
		},
	}

	cmd.Flags().BoolVar(&args.Raw, "raw", false, "Print the rule content only")
	cmd.Flags().BoolVarP(&args.Copy, "copy", "c", false, "Copy the rule content to the clipboard")

	bindEnvVars(cmd)

	return cmd
}

func showRule(w io.Writer, rr *render.Renderer, r *rule.Rule, raw bool) error {
	if !raw {
		return rr.Rule(r)
	}

	_, err := io.WriteString(w, r.Content)
	if err != nil {
		return fmt.Errorf("write rule: %w", err)
	}

	return nil
}

type SearchArgs struct {
	*RootArgs

	Where string
	Limit int
}

func NewSearchCmd(ra *RootArgs) *cobra.Command {
	args := &SearchArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "search [term]",
		Short: "Fuzzy search rules by title, slug, tags and libs",
		Example: `  # Best matches for "react query":
  rulecat search react query

  # Only rules tagged Go:
  rulecat search testing --where '"Go" in rule.tags'`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, terms []string) error {
			a, err := args.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			filter, err := query.NewFilter(args.Where)
			if err != nil {
				return err
			}

			term := strings.Join(terms, " ")
			results := query.Search(filter.Apply(c.Rules()), term)

			slog.Debug("searched catalog",
				slog.String("term", term),
				slog.String("where", filter.String()),
				slog.Int("matches", len(results)),
			)

			rules := query.Rules(results)
			if args.Limit > 0 && args.Limit < len(rules) {
				rules = rules[:args.Limit]
			}

			return a.renderer(cmd.OutOrStdout()).Rules(rules)
		},
	}

	cmd.Flags().StringVar(&args.Where, "where", "", "CEL expression over the variable 'rule'")
	cmd.Flags().IntVarP(&args.Limit, "limit", "n", defaultSearchLimit, "Maximum number of results, 0 lists all")

	bindEnvVars(cmd)

	return cmd
}
