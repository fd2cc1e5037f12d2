package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	appuser "github.com/Zhima-Mochi/userdetails/internal/application/user"
	"github.com/Zhima-Mochi/userdetails/internal/config"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/userdetails/internal/infrastructure/userapi"
	"github.com/Zhima-Mochi/userdetails/internal/observability"
	"github.com/Zhima-Mochi/userdetails/internal/pkg/logging"
	workerpresentation "github.com/Zhima-Mochi/userdetails/internal/presentation/worker"
)

// app holds the wired components shared by every command.
type app struct {
	cfg          *config.Config
	baseLogger   *zap.Logger
	systemLogger *zap.Logger
	logger       zaplogger.Logger
	tel          observability.Observability
	registry     *prometheus.Registry
	tp           *sdktrace.TracerProvider

	cache          *memory.UsersCache
	bus            *outbox.Bus
	updateUsername *appuser.UpdateUsernameUseCase
	fetchProfile   *appuser.FetchUserProfileUseCase
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(baseLogger)

	a := &app{
		cfg:          cfg,
		baseLogger:   baseLogger,
		systemLogger: logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID),
		logger:       zaplogger.New(baseLogger),
		registry:     prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracer := observability.NopTracer()
	if cfg.TracingEnabled {
		a.tp, err = oteltrace.NewProvider(ctx, oteltrace.ProviderOptions{
			Service:  cfg.ServiceName,
			Env:      cfg.Env,
			Endpoint: cfg.OTLPEndpoint,
			Insecure: cfg.OTLPInsecure,
		})
		if err != nil {
			_ = baseLogger.Sync()
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		tracer = oteltrace.NewWithProvider(a.tp, cfg.ServiceName)
	}

	a.tel = infraobs.Build(infraobs.Options{
		Tracer:   tracer,
		Logger:   a.logger,
		Registry: prometrics.New(a.registry, cfg.MetricsNamespace, ""),
	})

	users, err := cfg.SeedUsers()
	if err != nil {
		a.Close()
		return nil, err
	}
	simulator := userapi.NewSimulator(userapi.Options{
		Rates: userapi.Rates{
			Network: cfg.SimNetworkErrorRate,
			Auth:    cfg.SimAuthErrorRate,
			Server:  cfg.SimServerErrorRate,
			General: cfg.SimGeneralErrorRate,
		},
		Latency: cfg.SimLatency,
		Seed:    cfg.SimSeed,
		Users:   users,
	})

	a.cache = memory.NewUsersCache()
	a.bus = outbox.NewBus(a.tel, outbox.Config{
		QueueSize:      cfg.BusQueueSize,
		Concurrency:    cfg.BusConcurrency,
		HandlerTimeout: cfg.BusHandlerTimeout,
	})
	worker := appuser.NewWorker(a.tel)
	workerpresentation.Subscribe(a.bus, a.logger, a.tel, worker.Handlers())

	a.updateUsername = appuser.NewUpdateUsernameUseCase(simulator, a.cache, a.bus, a.tel)
	a.fetchProfile = appuser.NewFetchUserProfileUseCase(simulator, a.cache, a.bus, a.tel)

	a.systemLogger.Info("app_initialized",
		zap.Int("seed_users", len(users)),
		zap.Bool("tracing_enabled", cfg.TracingEnabled),
	)
	return a, nil
}

// Close drains the bus, flushes spans and syncs the logger.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.bus != nil {
		if err := a.bus.Stop(ctx); err != nil {
			a.systemLogger.Warn("event_bus_stop_error", zap.Error(err))
		}
	}
	if a.tp != nil {
		if err := a.tp.Shutdown(ctx); err != nil {
			a.systemLogger.Warn("tracer_shutdown_error", zap.Error(err))
		}
	}
	_ = a.baseLogger.Sync()
}

// report prints the result and the cached snapshot for one-shot commands.
func (a *app) report(ctx context.Context, userID string, res appuser.Result) error {
	fmt.Fprintln(os.Stdout, res.String())
	if res != appuser.ResultSuccess {
		return errors.New("use case finished with " + res.String())
	}
	u, err := a.cache.Get(ctx, userID)
	if err != nil {
		return nil
	}
	fmt.Fprintf(os.Stdout, "id=%s username=%q image_url=%q\n", u.ID(), u.Name(), u.ImageURL())
	return nil
}
