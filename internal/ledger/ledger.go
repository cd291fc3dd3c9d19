// Package ledger holds the marketplace business rules: listing inventory,
// order placement against that inventory, and the order status machine.
// Persistence is delegated to a Store; identity arrives as an explicit Actor.
package ledger

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tilapia-hub-api-server/internal/ledger"

type Ledger struct {
	store  Store
	now    func() time.Time
	newID  func() string
	tracer trace.Tracer
}

type Option func(*Ledger)

// WithClock overrides the time source used for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides listing and order id generation.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(l *Ledger) { l.tracer = t }
}

func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return ulid.Make().String() },
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) start(ctx context.Context, name string, actor Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	)
	return l.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
