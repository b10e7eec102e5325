package metrics

import (
	"context"
	"testing"

	"github.com/example/jewel-storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInit_DisabledWithoutEndpoint(t *testing.T) {
	m, shutdown, err := Init(context.Background(), &config.Config{OTELServiceName: "test"})

	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NotPanics(t, func() { m.Inc(context.Background(), m.ProductsCreated) })
	assert.NoError(t, shutdown(context.Background()))
}

func TestNew_RecordsWithServiceName(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(provider.Meter("test"), "storefront-test")
	require.NoError(t, err)

	m.Inc(context.Background(), m.ProductsCreated, attribute.String("category", "rings"))
	m.Inc(context.Background(), m.ProductsCreated, attribute.String("category", "rings"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name != "products_created_total" {
			continue
		}
		found = true
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(2), sum.DataPoints[0].Value)
		v, ok := sum.DataPoints[0].Attributes.Value("service.name")
		require.True(t, ok)
		assert.Equal(t, "storefront-test", v.AsString())
	}
	assert.True(t, found)
}

func TestInc_NilSafe(t *testing.T) {
	var m *AppMetrics
	assert.NotPanics(t, func() { m.Inc(context.Background(), nil) })
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t,
		map[string]string{"signoz-ingestion-key": "abc", "x": "y=z"},
		parseHeaders("signoz-ingestion-key=abc, x=y=z,broken"),
	)
	assert.Empty(t, parseHeaders(""))
}

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "localhost:4318", stripScheme("http://localhost:4318/"))
	assert.Equal(t, "ingest.signoz.cloud:443", stripScheme("https://ingest.signoz.cloud:443"))
}
