package source

import (
	"context"
	"fmt"

	"github.com/macropower/rulecat/pkg/rule"
)

// Build loads the rule sets selected by cfg and constructs a catalog with
// the configured validation and duplicate policies.
func Build(ctx context.Context, cfg *Config, opts ...LoaderOpt) (*rule.Catalog, error) {
	l := NewLoader(opts...)

	return l.Build(ctx, cfg)
}

// Build loads the rule sets selected by cfg and constructs a catalog.
func (l *Loader) Build(ctx context.Context, cfg *Config) (*rule.Catalog, error) {
	batches, err := l.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalogOpts := append(cfg.CatalogOpts(), rule.WithLogger(l.logger))

	c, err := rule.NewCatalog(batches, catalogOpts...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	return c, nil
}
