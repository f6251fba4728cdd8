// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package shared holds the pieces every integration needs: the process
// logger, the OpenTelemetry SDK bootstrap and the environment switches that
// enable or disable individual integrations.
package shared

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/cloudnativeleague/opentelemetry-dotnet-instrumentation/pkg/calltarget"
)

const (
	defaultTraceBatchTimeout = 5 * time.Second
	defaultTraceBatchSize    = 512
	shutdownTimeout          = 5 * time.Second
)

var (
	logger             *slog.Logger
	meterProvider      *sdkmetric.MeterProvider
	tracerProvider     *sdktrace.TracerProvider
	initOnce           sync.Once
	runtimeMetricsOnce sync.Once
)

func init() {
	// The logger must exist before any integration resolves its first
	// interception, so it is built at package load time.
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	calltarget.SetLogger(logger)
}

// Config holds the identity reported by the telemetry this process emits.
type Config struct {
	ServiceName            string
	ServiceVersion         string
	InstrumentationName    string
	InstrumentationVersion string
}

// Initialize sets up the OpenTelemetry SDK. It is safe to call from every
// integration's init path: only the first call does work, and a failure is
// logged rather than propagated so the host application keeps running.
func Initialize(cfg Config) {
	initOnce.Do(func() {
		defer func() {
			if rec := recover(); rec != nil {
				Logger().Error("panic during OpenTelemetry initialization", "panic", rec)
			}
		}()

		if err := setupOpenTelemetry(cfg); err != nil {
			logger.Error("failed to setup OpenTelemetry", "error", err)
		}
		setupSignalHandler()
	})
}

// Logger returns the process logger.
func Logger() *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger
}

// logLevel reads OTEL_LOG_LEVEL (debug, info, warn, error).
func logLevel() slog.Level {
	switch os.Getenv("OTEL_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupOpenTelemetry(cfg Config) (retErr error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic during OpenTelemetry setup", "panic", rec)
			retErr = nil
		}
	}()

	ctx := context.Background()

	// Environment-based resource configuration goes last so
	// OTEL_SERVICE_NAME and OTEL_RESOURCE_ATTRIBUTES win over the values
	// compiled into the integration.
	resourceOptions := []resource.Option{
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
	}
	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = cfg.ServiceName
	}
	if cfg.ServiceVersion != "" {
		resourceOptions = append(resourceOptions,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(serviceName),
				semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			),
		)
	}
	resourceOptions = append(resourceOptions, resource.WithFromEnv())

	res, err := resource.New(ctx, resourceOptions...)
	if err != nil {
		logger.Warn("failed to create resource", "error", err)
		res = resource.Default()
	}

	if err := setupTraceProvider(ctx, res); err != nil {
		logger.Warn("failed to setup trace provider", "error", err)
	}
	if err := setupMeterProvider(ctx, res); err != nil {
		logger.Warn("failed to setup meter provider", "error", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("OpenTelemetry initialized",
		"service_name", serviceName,
		"instrumentation_name", cfg.InstrumentationName,
		"instrumentation_version", cfg.InstrumentationVersion)
	return nil
}

func setupTraceProvider(ctx context.Context, res *resource.Resource) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	}
	if endpoint == "" {
		logger.Debug("no OTLP endpoint configured, skipping trace provider setup")
		return nil
	}

	traceExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return err
	}
	tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter,
			sdktrace.WithBatchTimeout(defaultTraceBatchTimeout),
			sdktrace.WithMaxExportBatchSize(defaultTraceBatchSize),
		),
	)
	otel.SetTracerProvider(tracerProvider)
	logger.Info("trace provider initialized", "endpoint", endpoint)
	return nil
}

func setupMeterProvider(ctx context.Context, res *resource.Resource) error {
	metricReader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return err
	}
	meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(metricReader),
	)
	otel.SetMeterProvider(meterProvider)
	logger.Info("meter provider initialized with auto-export")
	return nil
}

// Shutdown flushes and stops the providers built by Initialize.
func Shutdown(ctx context.Context) error {
	var err error
	if tracerProvider != nil {
		if shutdownErr := tracerProvider.Shutdown(ctx); shutdownErr != nil {
			Logger().Error("failed to shutdown tracer provider", "error", shutdownErr)
			err = shutdownErr
		}
	}
	if meterProvider != nil {
		if shutdownErr := meterProvider.Shutdown(ctx); shutdownErr != nil {
			Logger().Error("failed to shutdown meter provider", "error", shutdownErr)
			err = shutdownErr
		}
	}
	return err
}

// StartRuntimeMetrics enables Go runtime metrics collection. It follows the
// same enable/disable switches as the integrations, under the name
// "runtimemetrics", and only the first call does work.
func StartRuntimeMetrics() error {
	var startErr error
	runtimeMetricsOnce.Do(func() {
		if !IntegrationEnabled("runtimemetrics") {
			logger.Debug("runtime metrics disabled via environment variable")
			return
		}
		if err := runtime.Start(runtime.WithMeterProvider(otel.GetMeterProvider())); err != nil {
			logger.Warn("failed to start runtime metrics", "error", err)
			startErr = err
			return
		}
		logger.Info("runtime metrics enabled")
	})
	return startErr
}

// setupSignalHandler flushes telemetry on interrupt before the process
// exits.
func setupSignalHandler() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := Shutdown(ctx); err != nil {
			logger.Error("error during shutdown", "error", err)
		}

		signal.Reset(os.Interrupt)
		os.Exit(0)
	}()
}
