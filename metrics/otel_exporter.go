package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter records catalog and HTTP metrics with OpenTelemetry and exposes them in Prometheus format
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prometheus.Registry
	collector     Collector

	meter            metric.Meter
	bookCountGauge   metric.Int64ObservableGauge
	authorCountGauge metric.Int64ObservableGauge
	requestCounter   metric.Int64Counter
}

// NewOTelExporter creates an exporter backed by its own Prometheus registry
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		"bookcatalog",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		registry:      registry,
		collector:     collector,
		meter:         meter,
	}

	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

func (oe *OTelExporter) registerInstruments() error {
	var err error

	oe.bookCountGauge, err = oe.meter.Int64ObservableGauge(
		"books.count",
		metric.WithDescription("Number of books in the catalog"),
		metric.WithUnit("{books}"),
	)
	if err != nil {
		return fmt.Errorf("creating book count gauge: %w", err)
	}

	oe.authorCountGauge, err = oe.meter.Int64ObservableGauge(
		"books.authors",
		metric.WithDescription("Number of distinct authors in the catalog"),
		metric.WithUnit("{authors}"),
	)
	if err != nil {
		return fmt.Errorf("creating author count gauge: %w", err)
	}

	// one Collect per scrape feeds both gauges
	_, err = oe.meter.RegisterCallback(oe.observeCatalog, oe.bookCountGauge, oe.authorCountGauge)
	if err != nil {
		return fmt.Errorf("registering catalog callback: %w", err)
	}

	oe.requestCounter, err = oe.meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Number of HTTP requests served"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return fmt.Errorf("creating request counter: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeCatalog(ctx context.Context, observer metric.Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return err
	}
	observer.ObserveInt64(oe.bookCountGauge, m.BookCount)
	observer.ObserveInt64(oe.authorCountGauge, m.AuthorCount)
	return nil
}

// Middleware counts requests by method, matched route pattern and status code
func (oe *OTelExporter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		oe.requestCounter.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("http.response.status_code", strconv.Itoa(status)),
		))
	})
}

// ServeHTTP returns the Prometheus scrape handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.HandlerFor(oe.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
