package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulecat/pkg/install"
)

type InstallArgs struct {
	*RootArgs

	Force       bool
	CursorRules bool
}

func NewInstallCmd(ra *RootArgs) *cobra.Command {
	args := &InstallArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "install <slug> [dir]",
		Short: "Write a rule into a project",
		Example: `  # Install into ./.cursor/rules:
  rulecat install nextjs-react-typescript-cursor-rules

  # Replace the project's .cursorrules file:
  rulecat install nextjs-react-typescript-cursor-rules ./my-app --cursorrules --force`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: slugCompletion(ra, ruleCompletions),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			dir := "."
			if len(posArgs) > 1 {
				dir = posArgs[1]
			}

			a, err := args.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			r, err := findRule(c, posArgs[0])
			if err != nil {
				return err
			}

			inst := install.NewInstaller(a.cfg.Install,
				install.WithForce(args.Force),
				install.WithCursorRules(args.CursorRules),
				install.WithLogger(slog.Default()),
			)

			path, err := inst.Install(dir, r)
			if err != nil {
				return fmt.Errorf("install %q: %w", r.Slug, err)
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&args.Force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&args.CursorRules, "cursorrules", false, "Write the "+install.CursorRulesFile+" file instead")

	bindEnvVars(cmd)

	return cmd
}

func NewDiffCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "diff <slug> <file>",
		Short:             "Show how an installed rule differs from the catalog",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: slugCompletion(ra, ruleCompletions),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ra.newApp()
			if err != nil {
				return err
			}

			c, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			r, err := findRule(c, args[0])
			if err != nil {
				return err
			}

			diff, err := install.NewInstaller(a.cfg.Install).Diff(args[1], r)
			if err != nil {
				return err
			}

			if diff == "" {
				slog.Debug("installed rule is up to date", slog.String("path", args[1]))
			}

			return a.renderer(cmd.OutOrStdout()).Diff(diff)
		},
	}

	return cmd
}
