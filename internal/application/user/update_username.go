package user

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/userdetails/internal/application"
	domoutbox "github.com/Zhima-Mochi/userdetails/internal/domain/outbox"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseUpdateUsername  = "user.update_username"
	updateUsernameSpanName = "UpdateUsername"
	endpointUpdateUsername = "update_username"
)

// UpdateUsernameUseCase changes a username remotely, then caches the new snapshot and
// announces it on the bus.
type UpdateUsernameUseCase struct {
	endpoint  UpdateUsernameEndpoint
	cache     domain.Cache
	publisher domoutbox.Publisher
	ins       instrumentation
}

var _ application.UseCase[UpdateUsernameInput, Result] = (*UpdateUsernameUseCase)(nil)

// NewUpdateUsernameUseCase wires the dependencies required to execute the use case.
// tel may be nil.
func NewUpdateUsernameUseCase(
	endpoint UpdateUsernameEndpoint,
	cache domain.Cache,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *UpdateUsernameUseCase {
	return &UpdateUsernameUseCase{
		endpoint:  endpoint,
		cache:     cache,
		publisher: publisher,
		ins:       newInstrumentation(tel),
	}
}

type UpdateUsernameInput struct {
	UserID   string
	Username string
}

// Execute calls the endpoint once. Only a SUCCESS status reaches the cache and the
// publisher; every other status is a failure and an endpoint error is a network error.
func (uc *UpdateUsernameUseCase) Execute(ctx context.Context, cmd UpdateUsernameInput) (result Result) {
	logger := logctx.FromOr(ctx, uc.ins.log).With(
		observability.F("use_case", useCaseUpdateUsername),
		observability.F("user_id", cmd.UserID),
	)

	ctx, span := uc.ins.tracer.Start(ctx, spanPrefix+updateUsernameSpanName,
		attribute.String("use_case", useCaseUpdateUsername),
		attribute.String("user.id", cmd.UserID),
	)
	start := time.Now()
	statusText := "OK"
	var fields []observability.Field

	defer func() {
		uc.ins.done(ctx, span, logger, useCaseUpdateUsername, result, statusText, start, fields...)
	}()

	callStart := time.Now()
	resp, err := uc.endpoint.UpdateUsername(ctx, cmd.UserID, cmd.Username)
	uc.ins.external(endpointPeer, endpointUpdateUsername, callOutcome(err), callStart)
	if err != nil {
		statusText = "NETWORK_ERROR"
		span.RecordError(err)
		fields = append(fields, observability.E(err))
		return ResultNetworkError
	}

	span.SetAttributes(attribute.String("user.endpoint_status", resp.Status.String()))
	if resp.Status != domain.StatusSuccess {
		statusText = resp.Status.String()
		return ResultFailure
	}

	updated, err := domain.New(resp.UserID, resp.Username, uc.cachedImageURL(ctx, resp.UserID))
	if err != nil {
		statusText = "INVALID_RESPONSE"
		fields = append(fields, observability.E(err))
		return ResultFailure
	}

	if err := uc.cache.Put(ctx, updated); err != nil {
		statusText = "CACHE_PUT_FAILED"
		span.RecordError(err)
		fields = append(fields, observability.F("cache_error", err.Error()))
	}

	if uc.publisher != nil {
		if err := uc.ins.publish(ctx, uc.publisher, domain.NewDetailsChangedEvent(updated)); err != nil {
			statusText = "EVENT_PUBLISH_FAILED"
			span.RecordError(err)
			fields = append(fields, observability.F("event_publish_error", err.Error()))
		}
	}

	span.AddEvent("user.username_updated",
		trace.WithAttributes(attribute.String("user.id", updated.ID())),
	)
	return ResultSuccess
}

// cachedImageURL keeps the image of a previously cached profile; the update endpoint does
// not return one.
func (uc *UpdateUsernameUseCase) cachedImageURL(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}
	existing, err := uc.cache.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logctx.FromOr(ctx, uc.ins.log).Warn("cache_get_failed",
				observability.F("user_id", userID),
				observability.E(err),
			)
		}
		return ""
	}
	return existing.ImageURL()
}
