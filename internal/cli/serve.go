package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/macropower/rulecat/pkg/httpapi"
	"github.com/macropower/rulecat/pkg/mcp"
	"github.com/macropower/rulecat/pkg/metrics"
	"github.com/macropower/rulecat/pkg/source"
	"github.com/macropower/rulecat/pkg/telemetry"
	"github.com/macropower/rulecat/pkg/version"
)

var errNothingToServe = errors.New("nothing to serve: set --http, --mcp or --stdio")

type ServeArgs struct {
	*RootArgs

	HTTP  string
	MCP   string
	Stdio bool
	Watch bool
}

func NewServeCmd(ra *RootArgs) *cobra.Command {
	args := &ServeArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over MCP and a JSON API",
		Example: `  # MCP over stdio, for editor integrations:
  rulecat serve --stdio

  # JSON API and MCP streamable HTTP, reloading when rule sets change:
  rulecat serve --http :8080 --mcp :8081 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), args)
		},
	}

	cmd.Flags().StringVar(&args.HTTP, "http", "", "Serve the JSON API at this address (default from server.http)")
	cmd.Flags().StringVar(&args.MCP, "mcp", "", "Serve MCP streamable HTTP at this address (default from server.mcp)")
	cmd.Flags().BoolVar(&args.Stdio, "stdio", false, "Serve MCP over stdio")
	cmd.Flags().BoolVarP(&args.Watch, "watch", "w", false, "Reload the catalog when rule set files change")

	bindEnvVars(cmd)

	return cmd
}

func serve(ctx context.Context, args *ServeArgs) error {
	a, err := args.newApp()
	if err != nil {
		return err
	}

	httpAddr := args.HTTP
	if httpAddr == "" {
		httpAddr = a.cfg.Server.HTTP
	}

	mcpAddr := args.MCP
	if mcpAddr == "" {
		mcpAddr = a.cfg.Server.MCP
	}

	if httpAddr == "" && mcpAddr == "" && !args.Stdio {
		return errNothingToServe
	}

	otelCfg, err := telemetry.ConfigFromEnv(version.GetVersion())
	if err != nil {
		return fmt.Errorf("telemetry config: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, otelCfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	defer func() {
		err := shutdown(context.WithoutCancel(ctx))
		if err != nil {
			slog.Error("shutdown telemetry", slog.Any("err", err))
		}
	}()

	m := metrics.New(metrics.WithRuntimeCollectors())

	loader := source.NewLoader(source.WithLogger(slog.Default()))

	reloader, err := source.NewReloader(ctx, loader, a.cfg.Catalog, source.WithObserver(m))
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	slog.InfoContext(ctx, "loaded catalog",
		slog.Int("rules", reloader.Current().Len()),
		slog.Int("sections", len(reloader.Current().Tags())),
	)

	// Everything stops once the stdio peer disconnects.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if args.Watch {
		g.Go(func() error {
			return reloader.Watch(ctx)
		})
	}

	if httpAddr != "" {
		api := httpapi.NewServer(reloader,
			httpapi.WithAddress(httpAddr),
			httpapi.WithObserver(m),
			httpapi.WithMetricsHandler(m.Handler()),
			httpapi.WithLogger(slog.Default()),
		)

		g.Go(func() error {
			return api.Serve(ctx)
		})
	}

	if mcpAddr != "" {
		s := mcp.NewServer(reloader,
			mcp.WithAddress(mcpAddr),
			mcp.WithObserver(m),
			mcp.WithLogger(slog.Default()),
		)

		g.Go(func() error {
			return s.Serve(ctx)
		})
	}

	if args.Stdio {
		s := mcp.NewServer(reloader,
			mcp.WithObserver(m),
			mcp.WithLogger(slog.Default()),
		)

		g.Go(func() error {
			defer cancel()

			return s.Serve(ctx)
		})
	}

	err = g.Wait()
	if err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	return nil
}
