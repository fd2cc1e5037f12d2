package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Zhima-Mochi/userdetails/internal/application"
	appuser "github.com/Zhima-Mochi/userdetails/internal/application/user"
	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/observability/logctx"
)

// UserReader reads cached user snapshots.
type UserReader interface {
	Get(ctx context.Context, id string) (domain.User, error)
	List(ctx context.Context) []domain.User
}

type Handler struct {
	updateUsername application.UseCase[appuser.UpdateUsernameInput, appuser.Result]
	fetchProfile   application.UseCase[appuser.FetchUserProfileInput, appuser.Result]
	users          UserReader
	validate       *validator.Validate
	tracer         observability.Tracer
	log            observability.Logger
	tel            observability.Observability

	httpRequests observability.Counter
	httpDuration observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

func NewHandler(
	updateUsername application.UseCase[appuser.UpdateUsernameInput, appuser.Result],
	fetchProfile application.UseCase[appuser.FetchUserProfileInput, appuser.Result],
	users UserReader,
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	tel = observability.OrNop(tel)
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		updateUsername: updateUsername,
		fetchProfile:   fetchProfile,
		users:          users,
		validate:       validator.New(),
		tracer:         tel.Tracer(),
		log:            baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:            tel,
		httpRequests:   tel.Metrics().Counter(observability.MHTTPRequests),
		httpDuration:   tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Trace → Request Logger → HTTP metrics → Access log → Handler
	r.Use(
		h.withTrace,
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		}, h.tel),
		h.withHTTPMetrics,
		h.withAccessLog,
	)

	r.Get("/health", h.handleHealth)
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.handleListCached)
		r.Put("/{id}/username", h.handleUpdateUsername)
		r.Get("/{id}/profile", h.handleFetchProfile)
		r.Get("/{id}/cached", h.handleGetCached)
	})

	return r
}

type updateUsernameRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ImageURL string `json:"image_url,omitempty"`
}

type resultResponse struct {
	Result string        `json:"result"`
	User   *userResponse `json:"user,omitempty"`
}

func (h *Handler) handleUpdateUsername(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req updateUsernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, formatValidationError(err))
		return
	}

	res := h.updateUsername.Execute(r.Context(), appuser.UpdateUsernameInput{
		UserID:   userID,
		Username: req.Username,
	})
	h.writeResult(w, r, userID, res)
}

func (h *Handler) handleFetchProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	res := h.fetchProfile.Execute(r.Context(), appuser.FetchUserProfileInput{UserID: userID})
	h.writeResult(w, r, userID, res)
}

func (h *Handler) handleGetCached(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleListCached(w http.ResponseWriter, r *http.Request) {
	users := h.users.List(r.Context())
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// writeResult maps a use case result to a status code and, on success, returns the cached snapshot.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, userID string, res appuser.Result) {
	body := resultResponse{Result: res.String()}
	switch res {
	case appuser.ResultSuccess:
		if u, err := h.users.Get(r.Context(), userID); err == nil {
			resp := toUserResponse(u)
			body.User = &resp
		} else {
			logctx.FromOr(r.Context(), h.log).Warn("cached_user_missing",
				observability.F("user_id", userID),
				observability.E(err),
			)
		}
		writeJSON(w, http.StatusOK, body)
	case appuser.ResultNetworkError:
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		writeJSON(w, http.StatusBadGateway, body)
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID(), Username: u.Name(), ImageURL: u.ImageURL()}
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routePattern(r)),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace starts the request span from the injected tracer, parented on the W3C headers.
// The span is renamed to the matched route template once routing is done.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := h.tracer.Start(parentCtx,
			r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		r = r.WithContext(ctx)
		next.ServeHTTP(lrw, r)

		route := routePattern(r)
		span.SetName(r.Method + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", lrw.status),
		)
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using the injected instruments.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routePattern(r)),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.httpRequests.Add(1, labels...)
		h.httpDuration.Observe(time.Since(start).Seconds(), labels...)
	})
}

// routePattern returns the matched chi route template, keeping metric labels low-cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unknown"
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, e.Param()))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
