package metrics

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/jewel-storefront/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

const exportInterval = 10 * time.Second

// AppMetrics holds every instrument the storefront backend records.
type AppMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	ProductsCreated  metric.Int64Counter
	ProductsUpdated  metric.Int64Counter
	ProductsDeleted  metric.Int64Counter
	ImagesUploaded   metric.Int64Counter
	ImageProxyHits   metric.Int64Counter
	EventsProjected  metric.Int64Counter
	ProjectionErrors metric.Int64Counter

	serviceName string
}

// Shutdown flushes and stops the meter provider.
type Shutdown func(context.Context) error

// Init builds the instruments. With no OTLP endpoint configured the
// instruments are no-ops.
func Init(ctx context.Context, cfg *config.Config) (*AppMetrics, Shutdown, error) {
	if !cfg.MetricsEnabled() {
		log.Println("[Metrics] OTEL_EXPORTER_OTLP_ENDPOINT not set, metrics disabled")
		m, err := New(noop.NewMeterProvider().Meter(cfg.OTELServiceName), cfg.OTELServiceName)
		return m, func(context.Context) error { return nil }, err
	}

	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create resource: %w", err)
	}
	// explicit attributes take precedence over env
	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without a scheme
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(stripScheme(cfg.OTELExporterOTLPEndpoint)),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if headers := parseHeaders(cfg.OTELExporterOTLPHeaders); len(headers) > 0 {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(headers))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	log.Printf("[Metrics] Exporting to %s/v1/metrics every %s", cfg.OTELExporterOTLPEndpoint, exportInterval)

	m, err := New(provider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}
	return m, provider.Shutdown, nil
}

// New creates the instruments on meter.
func New(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// SigNoz default histogram buckets in milliseconds, expanded to 60s
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http.server.request.count", "Total number of HTTP requests"},
		{&m.HTTPRequestsErrors, "http.server.request.error.count", "Total number of HTTP error requests"},
		{&m.ProductsCreated, "products_created_total", "Products added to the catalog"},
		{&m.ProductsUpdated, "products_updated_total", "Product edits"},
		{&m.ProductsDeleted, "products_deleted_total", "Products removed from the catalog"},
		{&m.ImagesUploaded, "images_uploaded_total", "Images stored in the bucket"},
		{&m.ImageProxyHits, "image_proxy_requests_total", "Images served through the proxy"},
		{&m.EventsProjected, "events_projected_total", "Product events folded into the read store"},
		{&m.ProjectionErrors, "projection_errors_total", "Product events the projector failed to apply"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	return m, nil
}

// NewNoop returns instruments that record nothing. Handy in tests.
func NewNoop() *AppMetrics {
	m, _ := New(noop.NewMeterProvider().Meter("noop"), "noop")
	return m
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// Inc adds one to counter with the service name attached.
func (m *AppMetrics) Inc(ctx context.Context, counter metric.Int64Counter, attrs ...attribute.KeyValue) {
	if m == nil || counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(headerStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}

func stripScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return strings.TrimRight(endpoint, "/")
}
