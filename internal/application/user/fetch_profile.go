package user

import (
	"context"
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
	useCaseFetchProfile  = "user.fetch_profile"
	fetchProfileSpanName = "FetchUserProfile"
	endpointFetchProfile = "get_user_profile"
)

// FetchUserProfileUseCase refreshes the cached profile of a user from the remote API.
type FetchUserProfileUseCase struct {
	endpoint  UserProfileEndpoint
	cache     domain.Cache
	publisher domoutbox.Publisher
	ins       instrumentation
}

var _ application.UseCase[FetchUserProfileInput, Result] = (*FetchUserProfileUseCase)(nil)

// NewFetchUserProfileUseCase wires the use case. publisher and tel are optional.
func NewFetchUserProfileUseCase(
	endpoint UserProfileEndpoint,
	cache domain.Cache,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *FetchUserProfileUseCase {
	return &FetchUserProfileUseCase{
		endpoint:  endpoint,
		cache:     cache,
		publisher: publisher,
		ins:       newInstrumentation(tel),
	}
}

type FetchUserProfileInput struct {
	UserID string
}

// Execute fetches the profile once and, on SUCCESS only, caches it and publishes
// ProfileFetchedEvent when a publisher is configured.
func (uc *FetchUserProfileUseCase) Execute(ctx context.Context, cmd FetchUserProfileInput) (result Result) {
	logger := logctx.FromOr(ctx, uc.ins.log).With(
		observability.F("use_case", useCaseFetchProfile),
		observability.F("user_id", cmd.UserID),
	)

	ctx, span := uc.ins.tracer.Start(ctx, spanPrefix+fetchProfileSpanName,
		attribute.String("use_case", useCaseFetchProfile),
		attribute.String("user.id", cmd.UserID),
	)
	start := time.Now()
	statusText := "OK"
	var fields []observability.Field

	defer func() {
		uc.ins.done(ctx, span, logger, useCaseFetchProfile, result, statusText, start, fields...)
	}()

	callStart := time.Now()
	resp, err := uc.endpoint.GetUserProfile(ctx, cmd.UserID)
	uc.ins.external(endpointPeer, endpointFetchProfile, callOutcome(err), callStart)
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

	profile, err := domain.New(resp.UserID, resp.FullName, resp.ImageURL)
	if err != nil {
		statusText = "INVALID_RESPONSE"
		fields = append(fields, observability.E(err))
		return ResultFailure
	}

	if err := uc.cache.Put(ctx, profile); err != nil {
		statusText = "CACHE_PUT_FAILED"
		span.RecordError(err)
		fields = append(fields, observability.F("cache_error", err.Error()))
	}

	if uc.publisher != nil {
		if err := uc.ins.publish(ctx, uc.publisher, domain.NewProfileFetchedEvent(profile)); err != nil {
			statusText = "EVENT_PUBLISH_FAILED"
			span.RecordError(err)
			fields = append(fields, observability.F("event_publish_error", err.Error()))
		}
	}

	span.AddEvent("user.profile_fetched",
		trace.WithAttributes(attribute.String("user.id", profile.ID())),
	)
	return ResultSuccess
}
