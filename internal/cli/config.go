package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/macropower/rulecat/api/v1beta1/configs"
	"github.com/macropower/rulecat/pkg/render"
)

func NewConfigCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the rulecat configuration",
	}

	cmd.AddCommand(
		newConfigWriteCmd(ra),
		newConfigShowCmd(ra),
		newConfigSchemaCmd(),
	)

	return cmd
}

func newConfigWriteCmd(ra *RootArgs) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the default configuration file",
		Long: `Write the default configuration file. An existing file is kept unless
--force is set, in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ra.ConfigPath
			if path == "" {
				path = configs.GetPath()
			}

			written, err := configs.WriteDefault(path, force)
			if err != nil {
				return err
			}

			if !written {
				slog.Info("configuration exists, use --force to replace it", slog.String("path", path))

				return nil
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Back up and replace an existing file")

	return cmd
}

func newConfigShowCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := ra.newApp()
			if err != nil {
				return err
			}

			slog.Info("active configuration", slog.String("path", a.configPath))

			b, err := a.cfg.MarshalYAML()
			if err != nil {
				return err
			}

			out := string(b)
			if isTerminal(cmd.OutOrStdout()) {
				out = render.Highlight(a.theme, "yaml", out)
			}

			mustN(fmt.Fprint(cmd.OutOrStdout(), out))

			return nil
		},
	}

	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mustN(cmd.OutOrStdout().Write(configs.Schema()))

			return nil
		},
	}

	return cmd
}
