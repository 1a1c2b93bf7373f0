// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/AleutianAI/hpfold/cmd/hpfold/config"
)

// telemetry bundles the OpenTelemetry pieces a command may own. Every
// exporter is optional; the search engine's tracer and meter stay
// no-ops when nothing here is enabled, so runs pay nothing for
// instrumentation they did not ask for.
type telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prometheus.Registry
	metricsServer  *http.Server
}

// setupTelemetry wires exporters from the global flags and config.
//
// Description:
//
//	Three independent sinks can be active at once: --telemetry-stdout
//	dumps spans and metric snapshots to stdout for local debugging,
//	telemetry.otlp_endpoint in the config ships spans to a collector
//	over gRPC, and a Prometheus registry backs /metrics. The registry
//	is created when --metrics-addr asks for a standalone listener or
//	when the caller sets needPrometheus (serve mounts the handler on
//	its own router).
//
// Outputs:
//   - *telemetry: Always non-nil on success; Shutdown it when done.
func setupTelemetry(ctx context.Context, needPrometheus bool) (*telemetry, error) {
	tel := &telemetry{}

	stdout := telemetryStdout || config.Global.Telemetry.Stdout
	otlpEndpoint := config.Global.Telemetry.OTLPEndpoint
	addr := metricsAddr
	if addr == "" {
		addr = config.Global.Telemetry.MetricsAddr
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("hpfold")))
	if err != nil {
		return nil, err
	}

	var traceOpts []sdktrace.TracerProviderOption
	if stdout {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
	}
	if otlpEndpoint != "" {
		conn, err := grpc.NewClient(otlpEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, err
		}
		traceOpts = append(traceOpts,
			sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	}
	if len(traceOpts) > 0 {
		traceOpts = append(traceOpts,
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res))
		tel.tracerProvider = sdktrace.NewTracerProvider(traceOpts...)
		otel.SetTracerProvider(tel.tracerProvider)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))
	}

	var metricOpts []sdkmetric.Option
	if stdout {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, err
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))))
	}
	if addr != "" || needPrometheus {
		tel.registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(tel.registry))
		if err != nil {
			return nil, err
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(exporter))
	}
	if len(metricOpts) > 0 {
		metricOpts = append(metricOpts, sdkmetric.WithResource(res))
		tel.meterProvider = sdkmetric.NewMeterProvider(metricOpts...)
		otel.SetMeterProvider(tel.meterProvider)
	}

	// Standalone listener for the one-shot commands; serve exposes
	// /metrics on its own router instead.
	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", tel.metricsHandler())
		tel.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("metrics listening", "addr", addr)
			if err := tel.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", "error", err)
			}
		}()
	}

	return tel, nil
}

// metricsHandler returns the Prometheus scrape handler, or nil when no
// registry was created.
func (t *telemetry) metricsHandler() http.Handler {
	if t.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops every active exporter. Never blocks more
// than 5 seconds.
func (t *telemetry) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if t.metricsServer != nil {
		if err := t.metricsServer.Shutdown(ctx); err != nil {
			slog.Warn("failed to stop metrics server", "error", err)
		}
	}
	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			slog.Warn("failed to shutdown meter provider", "error", err)
		}
	}
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			slog.Warn("failed to shutdown tracer provider", "error", err)
		}
	}
}
