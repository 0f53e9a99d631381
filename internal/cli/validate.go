package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/macropower/rulecat/api"
	"github.com/macropower/rulecat/api/v1beta1/rulesets"
	"github.com/macropower/rulecat/pkg/rule"
)

func NewValidateCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Validate rule set files, or the configured catalog",
		Example: `  # Check the catalog selected by the configuration:
  rulecat validate

  # Check rule set files before adding them as sources:
  rulecat validate ./rules/*.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, files []string) error {
			a, err := ra.newApp()
			if err != nil {
				return err
			}

			var c *rule.Catalog
			if len(files) == 0 {
				c, err = a.catalog(cmd.Context())
			} else {
				c, err = validateFiles(files, a.cfg.Catalog.CatalogOpts())
			}

			if err != nil {
				return err
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "ok: %s in %s\n",
				english.Plural(c.Len(), "rule", ""),
				english.Plural(len(c.Tags()), "section", ""),
			))

			return nil
		},
	}

	return cmd
}

// validateFiles checks each file against the rule set schema, then checks
// the records of all files together.
func validateFiles(files []string, opts []rule.CatalogOpt) (*rule.Catalog, error) {
	var (
		batches []rule.Batch
		errs    []error
	)

	for _, path := range files {
		data, err := api.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))

			continue
		}

		rs, err := rulesets.Load(path, data)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		slog.Debug("loaded rule set",
			slog.String("path", path),
			slog.String("name", rs.Name),
			slog.Int("rules", len(rs.Rules)),
		)

		batches = append(batches, rs.Batch())
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	c, err := rule.NewCatalog(batches, append(opts, rule.WithLogger(slog.Default()))...)
	if err != nil {
		return nil, fmt.Errorf("validate rules: %w", err)
	}

	return c, nil
}
