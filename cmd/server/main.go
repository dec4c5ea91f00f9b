package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/compasshq/compass/internal/answer"
	"github.com/compasshq/compass/internal/codex"
	"github.com/compasshq/compass/internal/eval"
	"github.com/compasshq/compass/internal/httpx"
	"github.com/compasshq/compass/internal/mongox"
	"github.com/compasshq/compass/internal/oai"
	"github.com/compasshq/compass/internal/report"
	"github.com/compasshq/compass/internal/server"
)

// initMeterProvider initializes an OpenTelemetry MeterProvider with a stdout exporter
func initMeterProvider() (*metric.MeterProvider, error) {
	// Create stdout exporter
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}

	// Create a meter provider with a periodic reader
	// The reader will export metrics every 10 seconds
	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter,
			metric.WithInterval(10*time.Second))),
	)

	// Set the global meter provider
	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

// initTracerProvider initializes an OpenTelemetry TracerProvider with a stdout exporter
func initTracerProvider() (*sdktrace.TracerProvider, error) {
	exporter, err := stdouttrace.New()
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)

	// Set the global tracer provider
	otel.SetTracerProvider(tracerProvider)

	return tracerProvider, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Initialize OpenTelemetry providers
	meterProvider, err := initMeterProvider()
	if err != nil {
		slog.Error("Failed to initialize meter provider", "error", err)
		panic(err)
	}

	tracerProvider, err := initTracerProvider()
	if err != nil {
		slog.Error("Failed to initialize tracer provider", "error", err)
		panic(err)
	}

	// Setup graceful shutdown for telemetry
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown meter provider", "error", err)
		}
		if err := tracerProvider.Shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown tracer provider", "error", err)
		}
	}()

	mongo := mongox.MustConnect()
	reports := report.NewStore(mongo)

	// Build the answering pipeline
	executor, err := codex.NewExecutor(envOr("REPO_PATH", "."))
	if err != nil {
		slog.Error("Failed to create codex executor", "error", err)
		panic(err)
	}

	cache, err := answer.NewCache(envOr("CACHE_DIR", ".cache/answers"), envOr("REPO_PATH", "."))
	if err != nil {
		slog.Error("Failed to create answer cache", "error", err)
		panic(err)
	}

	svc, err := answer.NewService(
		answer.NewCodexAnalyzer(executor),
		answer.NewTranslator(oai.NewGenerator(envOr("ANSWER_MODEL", eval.DefaultJudgeModel))),
		answer.WithCache(cache),
	)
	if err != nil {
		slog.Error("Failed to create answer service", "error", err)
		panic(err)
	}

	api := server.New(svc, reports)

	// Configure handler
	handler := api.Router()
	handler.Use(
		httpx.Logger(),
		httpx.Recovery(),
		httpx.Metrics(),
		httpx.Tracing(),
	)

	handler.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "Compass is ready to answer component questions.")
	})

	// Create HTTP server with graceful shutdown support
	httpServer := &http.Server{
		Addr:    ":8080",
		Handler: handler,
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		slog.Info("Starting the server...")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			panic(err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	slog.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}

	slog.Info("Server stopped")
}
