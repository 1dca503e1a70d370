package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewPrometheusExporter creates a Prometheus-backed OTel metric reader and
// the /metrics [http.Handler] that scrapes it. The two share one registry,
// so instruments registered against a MeterProvider built with the reader
// are the instruments the handler serves; building either independently
// (as valknut's first pass did) leaves the handler scraping an empty
// registry.
func NewPrometheusExporter() (sdkmetric.Reader, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	return exporter, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
