package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

// DiagnosticsServer exposes health, readiness, and Prometheus metrics
// endpoints over HTTP for operational monitoring. Every endpoint is served
// through HTTPMiddleware, so each scrape or probe gets its own span and
// access-log line rather than being invisible to the rest of the run's
// tracing.
type DiagnosticsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewDiagnosticsServer starts an HTTP server at addr with /healthz, /readyz,
// and /metrics endpoints. metricsHandler is the handler returned alongside
// the reader passed to the run's MeterProvider (see NewPrometheusExporter);
// passing an unrelated handler would serve a registry the run's instruments
// never write to.
func NewDiagnosticsServer(addr string, metricsHandler http.Handler, tracer trace.Tracer, logger *slog.Logger) (*DiagnosticsServer, error) {
	if tracer == nil {
		return nil, errors.New("observability: NewDiagnosticsServer requires a non-nil tracer")
	}

	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", HTTPMiddleware(tracer, logger, HealthHandler()))
	mux.Handle("/readyz", HTTPMiddleware(tracer, logger, ReadyHandler()))
	mux.Handle("/metrics", HTTPMiddleware(tracer, logger, metricsHandler))

	var lc net.ListenConfig

	listener, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: mux}

	go func() {
		serveErr := srv.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Warn("diagnostics server stopped", "error", serveErr)
		}
	}()

	return &DiagnosticsServer{server: srv, listener: listener}, nil
}

// Addr returns the address the server is listening on.
func (d *DiagnosticsServer) Addr() string {
	return d.listener.Addr().String()
}

// Close gracefully shuts down the diagnostics server.
func (d *DiagnosticsServer) Close() error {
	err := d.server.Shutdown(context.Background())
	if err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}
