package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/rulecat/pkg/log"
)

// ToolObserver is notified about every tool call.
type ToolObserver interface {
	ObserveToolCall(tool string, err error)
}

// WithTracing wraps a tool handler with an OpenTelemetry span, debug
// logging and an observer callback. A nil observer is ignored.
func WithTracing[In, Out any](
	tracer trace.Tracer,
	observer ToolObserver,
	handler mcp.ToolHandlerFor[In, Out],
) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (*mcp.CallToolResult, Out, error) {
		toolName := ""
		if req != nil && req.Params != nil {
			toolName = req.Params.Name
		}

		ctx, span := tracer.Start(ctx, "mcp.tool/"+toolName,
			trace.WithAttributes(attribute.String("mcp.tool", toolName)),
		)
		defer span.End()

		logger := log.WithContext(ctx)
		logger.DebugContext(ctx, "handling tool call",
			slog.String("name", toolName),
			slog.Any("args", in),
		)

		result, out, err := handler(ctx, req, in)
		if err != nil {
			logger.ErrorContext(ctx, "tool call failed",
				slog.String("name", toolName),
				slog.Any("error", err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			logger.DebugContext(ctx, "tool call completed", slog.String("name", toolName))
		}

		if observer != nil {
			observer.ObserveToolCall(toolName, err)
		}

		return result, out, err
	}
}
