package user

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	workerService = "user_worker"

	useCaseWorkerDetailsChanged = "user.worker.details_changed"
	useCaseWorkerProfileFetched = "user.worker.profile_fetched"
)

// Worker listens for user events published by the use cases.
type Worker struct {
	tracer observability.Tracer

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewWorker(tel observability.Observability) *Worker {
	tel = observability.OrNop(tel)
	metricsProvider := tel.Metrics()
	return &Worker{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

// Handlers maps event names to the worker's handlers. Callers subscribe them, usually through
// workerpresentation.Subscribe so each delivery carries an event-scoped logger.
func (w *Worker) Handlers() map[string]domoutbox.Handler {
	return map[string]domoutbox.Handler{
		domain.DetailsChangedEvent{}.EventName(): w.HandleDetailsChanged,
		domain.ProfileFetchedEvent{}.EventName(): w.HandleProfileFetched,
	}
}

func (w *Worker) HandleDetailsChanged(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.DetailsChangedEvent)
	if !ok {
		w.count(useCaseWorkerDetailsChanged, "ignored")
		return nil
	}
	w.handle(ctx, useCaseWorkerDetailsChanged, "DetailsChanged", "user_details_changed", evt.EventID, evt.User, evt.OccurredAt)
	return nil
}

func (w *Worker) HandleProfileFetched(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domain.ProfileFetchedEvent)
	if !ok {
		w.count(useCaseWorkerProfileFetched, "ignored")
		return nil
	}
	w.handle(ctx, useCaseWorkerProfileFetched, "ProfileFetched", "user_profile_fetched", evt.EventID, evt.User, evt.OccurredAt)
	return nil
}

func (w *Worker) handle(ctx context.Context, useCase, spanName, msg, eventID string, u domain.User, occurredAt time.Time) {
	ctx, span := w.tracer.Start(ctx, spanPrefix+spanName,
		attribute.String("use_case", useCase),
		attribute.String("user.id", u.ID()),
	)
	start := time.Now()

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCase),
		observability.F("user_id", u.ID()),
	)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	logger.Info(msg,
		observability.F("event_id", eventID),
		observability.F("username", u.Name()),
		observability.F("image_url", u.ImageURL()),
		observability.F("delivery_lag_seconds", time.Since(occurredAt).Seconds()),
	)

	w.observe(useCase, "success", time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "OK")
	span.End()
}

func (w *Worker) count(useCase, outcome string) {
	w.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
}

func (w *Worker) observe(useCase, outcome string, latencySeconds float64) {
	w.count(useCase, outcome)
	w.durHistogram.Observe(latencySeconds, observability.L("use_case", useCase))
}
