// Package httpapi serves a read-only JSON API over the rule catalog.
//
// Routes:
//
//	GET /api/v1/sections          sections, most popular first (?limit=)
//	GET /api/v1/sections/:slug    one section with its rules
//	GET /api/v1/rules             rules (?where= CEL filter, ?q= fuzzy term)
//	GET /api/v1/rules/*slug       one rule; slugs may contain "/"
//	GET /healthz                  liveness
//	GET /metrics                  Prometheus metrics, when configured
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/macropower/rulecat/pkg/serve"
	"github.com/macropower/rulecat/pkg/source"
	"github.com/macropower/rulecat/pkg/telemetry"
)

const unmatchedRoute = "unmatched"

// Observer is notified about requests and slug lookups.
type Observer interface {
	ObserveHTTPRequest(route string, code int, d time.Duration)
	ObserveLookup(kind string, found bool)
}

type nopObserver struct{}

func (nopObserver) ObserveHTTPRequest(string, int, time.Duration) {}
func (nopObserver) ObserveLookup(string, bool)                    {}

// Server is the HTTP API server.
type Server struct {
	provider source.Provider
	observer Observer
	metrics  http.Handler
	logger   *slog.Logger
	engine   *gin.Engine
	address  string
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithAddress sets the listen address used by [Server.Serve].
func WithAddress(address string) ServerOpt {
	return func(s *Server) {
		s.address = address
	}
}

// WithObserver sets the request observer.
func WithObserver(o Observer) ServerOpt {
	return func(s *Server) {
		s.observer = o
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) ServerOpt {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServerOpt {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server reading catalogs from provider.
func NewServer(provider source.Provider, opts ...ServerOpt) *Server {
	s := &Server{
		provider: provider,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.Use(
		gin.Recovery(),
		otelgin.Middleware(telemetry.ServiceName),
		s.observe(),
	)

	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := s.engine.Group("/api/v1")
	v1.GET("/sections", s.handleListSections)
	v1.GET("/sections/:slug", s.handleGetSection)
	v1.GET("/rules", s.handleListRules)
	v1.GET("/rules/*slug", s.handleGetRule)

	s.engine.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, fmt.Errorf("no route for %s", c.Request.URL.Path))
	})
}

// observe records the status and latency of every request, labelled by
// the matched route pattern.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		d := time.Since(start)
		s.observer.ObserveHTTPRequest(route, c.Writer.Status(), d)

		s.logger.DebugContext(c.Request.Context(), "handled request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", d),
		)
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	if s.address == "" {
		return errors.New("no listen address")
	}

	s.logger.InfoContext(ctx, "starting HTTP API", slog.String("address", s.address))

	return serve.ListenAndServe(ctx, serve.NewServer(s.address, s.engine), serve.DefaultShutdownTimeout)
}
