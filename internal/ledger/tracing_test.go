package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLedgerSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, store := setupLedger(t)
	l := New(store, WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	listing := createListing(t, l, farmerJohn, 450, 10)
	_, err := l.PlaceOrder(ctx, buyerAmina, listing.ID, 50)
	require.ErrorIs(t, err, ErrInsufficientStock)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.CreateListing", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, "ledger.PlaceOrder", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
