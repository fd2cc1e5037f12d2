package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	tel observability.Observability,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.OrNop(tel).Logger()
	}

	fields := make([]observability.Field, 0, 3+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Subscribe registers every handler on sub, wrapped so each delivery runs with an
// event-scoped logger.
func Subscribe(
	sub domoutbox.Subscriber,
	base observability.Logger,
	tel observability.Observability,
	handlers map[string]domoutbox.Handler,
) {
	for name, h := range handlers {
		sub.Subscribe(name, withEventLogger(base, tel, h))
	}
}

func withEventLogger(base observability.Logger, tel observability.Observability, next domoutbox.Handler) domoutbox.Handler {
	return func(ctx context.Context, e domoutbox.Event) error {
		attrs := map[string]string{"event": e.EventName()}
		if id, ok := e.(domoutbox.Identified); ok {
			attrs["event_id"] = id.MessageID()
		}
		sc := trace.SpanContextFromContext(ctx)
		ctx = WithEventContext(ctx, base, tel, sc.TraceID(), sc.SpanID(), attrs)
		return next(ctx, e)
	}
}
