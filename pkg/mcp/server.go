package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulecat/pkg/serve"
	"github.com/macropower/rulecat/pkg/source"
	"github.com/macropower/rulecat/pkg/telemetry"
	"github.com/macropower/rulecat/pkg/version"
)

// Observer is notified about tool calls and slug lookups.
type Observer interface {
	ToolObserver
	ObserveLookup(kind string, found bool)
}

type nopObserver struct{}

func (nopObserver) ObserveToolCall(string, error) {}
func (nopObserver) ObserveLookup(string, bool)    {}

// Server implements the MCP server for rulecat.
type Server struct {
	provider source.Provider
	observer Observer
	server   *mcp.Server
	tracer   trace.Tracer
	logger   *slog.Logger
	address  string
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithAddress serves streamable HTTP on address. Without an address the
// server uses stdio.
func WithAddress(address string) ServerOpt {
	return func(s *Server) {
		s.address = address
	}
}

// WithObserver sets the observer for tool calls and lookups.
func WithObserver(o Observer) ServerOpt {
	return func(s *Server) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOpt {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server reading catalogs from provider.
func NewServer(provider source.Provider, opts ...ServerOpt) *Server {
	s := &Server{
		provider: provider,
		observer: nopObserver{},
		tracer:   telemetry.Tracer("mcp"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       s.logger,
	})

	s.registerTools()
	s.server.AddResourceTemplate(ruleResourceTemplate(), s.handleReadRule)

	return s
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sections",
		Description: "List catalog sections (one per technology tag), most popular first.",
		InputSchema: inputSchema[ListSectionsParams](nonNegative("limit")),
	}, WithTracing(s.tracer, s.observer, s.handleListSections))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_section",
		Description: "Get the rules in a section. You MUST use a slug from the list_sections output EXACTLY.",
		InputSchema: inputSchema[GetSectionParams](nonEmpty("slug")),
	}, WithTracing(s.tracer, s.observer, s.handleGetSection))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_rule",
		Description: "Get a rule including its full content. You MUST use a slug from get_section or search_rules output EXACTLY.",
		InputSchema: inputSchema[GetRuleParams](nonEmpty("slug")),
	}, WithTracing(s.tracer, s.observer, s.handleGetRule))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_rules",
		Description: "Search rules by fuzzy text match and an optional CEL filter, best matches first.",
		InputSchema: inputSchema[SearchRulesParams](nonNegative("limit")),
	}, WithTracing(s.tracer, s.observer, s.handleSearchRules))
}

// Server returns the underlying SDK server.
func (s *Server) Server() *mcp.Server {
	return s.server
}

// Handler returns a streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// Serve runs the server until ctx is done: over streamable HTTP when an
// address is configured, otherwise over stdio.
func (s *Server) Serve(ctx context.Context) error {
	if s.address == "" {
		s.logger.InfoContext(ctx, "starting MCP server", slog.String("transport", "stdio"))

		return s.ServeTransport(ctx, &mcp.StdioTransport{})
	}

	s.logger.InfoContext(ctx, "starting MCP server",
		slog.String("transport", "http"),
		slog.String("address", s.address),
	)

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

// ServeTransport runs the server on a single transport until the peer
// disconnects or ctx is done.
func (s *Server) ServeTransport(ctx context.Context, t mcp.Transport) error {
	err := s.server.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	return serve.ListenAndServe(ctx, serve.NewServer(s.address, s.Handler()), serve.DefaultShutdownTimeout)
}
