package user_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	infraobs "github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
)

var errBoom = errors.New("boom")

type updateCall struct {
	UserID   string
	Username string
}

type fakeUpdateEndpoint struct {
	mu    sync.Mutex
	resp  domain.UpdateUsernameResponse
	err   error
	calls []updateCall
}

func (f *fakeUpdateEndpoint) UpdateUsername(_ context.Context, userID, username string) (domain.UpdateUsernameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, updateCall{UserID: userID, Username: username})
	return f.resp, f.err
}

type fakeProfileEndpoint struct {
	mu    sync.Mutex
	resp  domain.ProfileResponse
	err   error
	calls []string
}

func (f *fakeProfileEndpoint) GetUserProfile(_ context.Context, userID string) (domain.ProfileResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID)
	return f.resp, f.err
}

type fakeCache struct {
	mu     sync.Mutex
	items  map[string]domain.User
	puts   []domain.User
	gets   int
	putErr error
	getErr error
}

func newFakeCache(seed ...domain.User) *fakeCache {
	c := &fakeCache{items: make(map[string]domain.User)}
	for _, u := range seed {
		c.items[u.ID()] = u
	}
	return c
}

func (c *fakeCache) Put(_ context.Context, u domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts = append(c.puts, u)
	if c.putErr != nil {
		return c.putErr
	}
	c.items[u.ID()] = u
	return nil
}

func (c *fakeCache) Get(_ context.Context, id string) (domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return domain.User{}, c.getErr
	}
	u, ok := c.items[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// telemetry records spans, metrics and logs emitted by a use case.
type telemetry struct {
	obs   observability.Observability
	spans *tracetest.SpanRecorder
	reg   *prometheus.Registry
	logs  *observer.ObservedLogs
}

func newTelemetry(t *testing.T) *telemetry {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()

	obs := infraobs.Build(infraobs.Options{
		Tracer:   oteltrace.NewWithProvider(tp, "user-test"),
		Logger:   zaplogger.New(zap.New(core)),
		Registry: prometrics.New(reg, "", ""),
	})
	return &telemetry{obs: obs, spans: spans, reg: reg, logs: logs}
}

func (tel *telemetry) doneEntry(t *testing.T) observer.LoggedEntry {
	t.Helper()
	entries := tel.logs.FilterMessage("use_case_done").All()
	if len(entries) != 1 {
		t.Fatalf("expected one use_case_done entry, got %d", len(entries))
	}
	return entries[0]
}
