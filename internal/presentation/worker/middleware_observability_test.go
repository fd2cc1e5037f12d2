package workerpresentation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"
	workerpresentation "github.com/Zhima-Mochi/userdetails/internal/presentation/worker"
)

type subscriberFunc func(name string, h domoutbox.Handler)

func (f subscriberFunc) Subscribe(name string, h domoutbox.Handler) { f(name, h) }

func TestWithEventContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zaplogger.New(zap.New(core))

	traceID := trace.TraceID{1}
	spanID := trace.SpanID{2}
	ctx := workerpresentation.WithEventContext(context.Background(), base, nil, traceID, spanID,
		map[string]string{"event_id": "evt-1", "event": "user.details_changed", "empty": ""})

	logctx.From(ctx).Info("handled")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "evt-1", fields["event_id"])
	assert.Equal(t, "user.details_changed", fields["event"])
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
	assert.NotContains(t, fields, "empty")
}

func TestWithEventContext_GeneratesEventID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := workerpresentation.WithEventContext(context.Background(), zaplogger.New(zap.New(core)), nil,
		trace.TraceID{}, trace.SpanID{}, nil)

	logctx.From(ctx).Info("handled")

	fields := logs.All()[0].ContextMap()
	assert.NotEmpty(t, fields["event_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestSubscribe_WrapsHandlers(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zaplogger.New(zap.New(core))

	registered := map[string]domoutbox.Handler{}
	sub := subscriberFunc(func(name string, h domoutbox.Handler) { registered[name] = h })

	workerpresentation.Subscribe(sub, base, nil, map[string]domoutbox.Handler{
		"user.details_changed": func(ctx context.Context, _ domoutbox.Event) error {
			logctx.From(ctx).Info("inside")
			return nil
		},
	})
	require.Contains(t, registered, "user.details_changed")

	u, err := domain.New("u-1", "alice", "")
	require.NoError(t, err)
	evt := domain.NewDetailsChangedEvent(u)
	require.NoError(t, registered["user.details_changed"](context.Background(), evt))

	fields := logs.FilterMessage("inside").All()[0].ContextMap()
	assert.Equal(t, evt.EventID, fields["event_id"])
	assert.Equal(t, "user.details_changed", fields["event"])
}
