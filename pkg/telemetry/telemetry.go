// Package telemetry sets up OpenTelemetry tracing.
//
// Tracing is opt-in. When no OTLP endpoint is configured, [Init] leaves the
// global no-op tracer provider in place and returns a no-op shutdown.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Environment variables read by [ConfigFromEnv].
const (
	EnvEndpoint = "RULECAT_OTEL_ENDPOINT"
	EnvEnabled  = "RULECAT_OTEL_ENABLED"
	EnvInsecure = "RULECAT_OTEL_INSECURE"
)

// ServiceName identifies rulecat in exported spans.
const ServiceName = "rulecat"

// Config controls the tracer provider.
type Config struct {
	// Endpoint is the OTLP/gRPC collector address, e.g. "localhost:4317".
	Endpoint string
	// Version is reported as service.version.
	Version string
	// Enabled turns export on. Export also requires an endpoint.
	Enabled bool
	// Insecure disables TLS to the collector.
	Insecure bool
}

// ConfigFromEnv reads the RULECAT_OTEL_* environment variables. Export is
// enabled when an endpoint is set, unless RULECAT_OTEL_ENABLED is false.
func ConfigFromEnv(version string) (Config, error) {
	cfg := Config{
		Endpoint: os.Getenv(EnvEndpoint),
		Version:  version,
	}
	cfg.Enabled = cfg.Endpoint != ""

	if v := os.Getenv(EnvEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvEnabled, err)
		}

		cfg.Enabled = cfg.Enabled && enabled
	}

	if v := os.Getenv(EnvInsecure); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvInsecure, err)
		}

		cfg.Insecure = insecure
	}

	return cfg, nil
}

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// Init registers a global tracer provider exporting to cfg.Endpoint.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled || cfg.Endpoint == "" {
		return noop, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes("",
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", cfg.Version),
	))
	if err != nil {
		return noop, errors.Join(fmt.Errorf("create resource: %w", err), exporter.Shutdown(ctx))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer returns the named tracer from the global provider.
//
//nolint:ireturn // Following OpenTelemetry's function signature.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(ServiceName + "/" + name)
}
