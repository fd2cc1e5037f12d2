package user

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	"github.com/Zhima-Mochi/userdetails/internal/observability"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	userService  = "user-service"
	spanPrefix   = "UC."
	endpointPeer = "user-api"
	publishPeer  = "outbox"
)

// instrumentation holds the RED instruments shared by the user use cases.
type instrumentation struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func newInstrumentation(tel observability.Observability) instrumentation {
	tel = observability.OrNop(tel)
	metricsProvider := tel.Metrics()
	return instrumentation{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", userService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

func (in instrumentation) external(peer, endpoint, outcome string, start time.Time) {
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}

// publish hands e to publisher and records the call as an external request.
func (in instrumentation) publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	start := time.Now()
	err := publisher.Publish(ctx, e)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	in.external(publishPeer, e.EventName(), outcome, start)
	return err
}

// done ends span, records the use case metrics and writes the use_case_done line.
func (in instrumentation) done(
	ctx context.Context,
	span trace.Span,
	logger observability.Logger,
	useCase string,
	res Result,
	statusText string,
	start time.Time,
	extra ...observability.Field,
) {
	lat := time.Since(start).Seconds()

	if res == ResultSuccess {
		span.SetStatus(codes.Ok, statusText)
	} else {
		span.SetStatus(codes.Error, statusText)
	}
	span.End()

	in.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", res.Outcome()),
	)
	in.durHistogram.Observe(lat,
		observability.L("use_case", useCase),
	)

	fields := []observability.Field{
		observability.F("outcome", res.Outcome()),
		observability.F("result", res.String()),
		observability.F("status", statusText),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, extra...)

	logger.Info("use_case_done", fields...)
}

func callOutcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
