package telemetry

import (
	"context"
	"testing"

	"tilapia-hub-api-server/config"
	"tilapia-hub-api-server/internal/ledger"
	"tilapia-hub-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// restoreGlobalProvider puts back the tracer provider that was installed
// before the test.
func restoreGlobalProvider(t *testing.T) {
	t.Helper()
	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Stdout(t *testing.T) {
	restoreGlobalProvider(t)

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test", Stdout: true})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "stdout-span")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.IsRecording())
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_OTLPEndpoint(t *testing.T) {
	restoreGlobalProvider(t)

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		ServiceName: "svc",
		Endpoint:    "localhost:4318",
		Insecure:    true,
	})
	require.NoError(t, err)

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, ok, "expected the SDK tracer provider to be installed")
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_LedgerSpansReachProvider(t *testing.T) {
	restoreGlobalProvider(t)

	shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "tilapia-test", Stdout: true})
	require.NoError(t, err)
	defer shutdown(context.Background())

	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok)
	recorder := tracetest.NewSpanRecorder()
	tp.RegisterSpanProcessor(recorder)

	l := ledger.New(ledger.NewMemoryStore())
	farmer := ledger.Actor{ID: "farmer-1", Role: models.RoleFarmer}
	_, err = l.CreateListing(context.Background(), farmer, ledger.NewListing{
		PricePerKg:   450,
		SizeCategory: models.Size500gTo1kg,
		AvailableKg:  10,
	})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "ledger.CreateListing", spans[0].Name())

	var serviceName string
	for _, kv := range spans[0].Resource().Attributes() {
		if kv.Key == semconv.ServiceNameKey {
			serviceName = kv.Value.AsString()
		}
	}
	assert.Equal(t, "tilapia-test", serviceName)
}
