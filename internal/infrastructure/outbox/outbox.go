package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrClosed is returned by Publish once the bus has been stopped.
var ErrClosed = errors.New("outbox: bus closed")

const (
	componentOutbox = "outbox"

	DefaultQueueSize      = 1024
	DefaultConcurrency    = 8
	DefaultHandlerTimeout = 30 * time.Second
)

// Config tunes the bus. Zero values select the defaults.
type Config struct {
	QueueSize      int
	Concurrency    int
	HandlerTimeout time.Duration
}

// envelope carries the publisher's span context so handler spans join its trace.
type envelope struct {
	event  domoutbox.Event
	origin trace.SpanContext
}

// Bus is an in-memory event bus used as the notifier of the user use cases.
// It is not durable; events still queued at Stop are dispatched before the loop exits.
type Bus struct {
	subMu     sync.RWMutex
	subs      map[string][]domoutbox.Handler
	mu        sync.RWMutex // guards closed and sends on queue
	closed    bool
	queue     chan envelope
	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	cfg       Config

	log     observability.Logger
	tracer  observability.Tracer
	handled observability.Counter
}

var _ domoutbox.Bus = (*Bus)(nil)

// NewBus creates a bus with a buffered queue and a per-event concurrency cap. tel may be nil.
func NewBus(tel observability.Observability, cfg Config) *Bus {
	tel = observability.OrNop(tel)
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = DefaultHandlerTimeout
	}
	return &Bus{
		subs:    make(map[string][]domoutbox.Handler),
		queue:   make(chan envelope, cfg.QueueSize),
		done:    make(chan struct{}),
		cfg:     cfg,
		log:     tel.Logger().With(observability.F("component", componentOutbox)),
		tracer:  tel.Tracer(),
		handled: tel.Metrics().Counter(observability.MEventsHandled),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started",
			observability.F("queue_size", b.cfg.QueueSize),
			observability.F("concurrency", b.cfg.Concurrency),
		)
	})
}

// Stop refuses new events and waits until the queue is drained or ctx ends.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()

		b.startOnce.Do(func() { close(b.done) })

		select {
		case <-b.done:
		case <-ctx.Done():
			err = ctx.Err()
		}
		logctx.FromOr(ctx, b.log).Info("event_bus_stopped", observability.E(err))
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		logger.Warn("event_enqueue_rejected", observability.E(ErrClosed))
		return ErrClosed
	}

	env := envelope{event: e, origin: trace.SpanContextFromContext(ctx)}
	select {
	case b.queue <- env:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.E(ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for env := range b.queue {
		b.fanout(ctx, env)
	}
}

func (b *Bus) fanout(ctx context.Context, env envelope) {
	name := env.event.EventName()

	b.subMu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.subMu.RUnlock()

	if len(handlers) == 0 {
		b.log.Debug("event_dropped_no_subscriber", observability.F("event", name))
		return
	}

	baseLogger := b.log.With(observability.F("event", name))
	sem := make(chan struct{}, b.cfg.Concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			b.dispatch(ctx, baseLogger, env, h)
		}()
	}

	wg.Wait()

	baseLogger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}

func (b *Bus) dispatch(ctx context.Context, logger observability.Logger, env envelope, h domoutbox.Handler) {
	name := env.event.EventName()
	ctx, cancel := context.WithTimeout(ctx, b.cfg.HandlerTimeout)
	defer cancel()

	if env.origin.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, env.origin)
	}
	ctx, span := b.tracer.Start(ctx, "Event."+name, attribute.String("event", name))
	defer span.End()
	ctx = logctx.With(ctx, logger)

	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			span.SetStatus(codes.Error, "panic")
			logger.Error("event_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
		b.handled.Add(1, observability.L("event", name), observability.L("outcome", outcome))
	}()

	if err := h(ctx, env.event); err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("event_handler_error", observability.E(err))
	}
}
