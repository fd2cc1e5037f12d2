package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	appuser "github.com/Zhima-Mochi/userdetails/internal/application/user"
	"github.com/Zhima-Mochi/userdetails/internal/config"
	httppresentation "github.com/Zhima-Mochi/userdetails/internal/presentation/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	var cfg *config.Config

	return &cli.Command{
		Name:  "userdetails",
		Usage: "Update usernames and refresh cached user profiles",
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			loaded, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(&cfg),
			cmdUpdateUsername(&cfg),
			cmdFetchProfile(&cfg),
		},
	}
}

func cmdServe(cfg **config.Config) *cli.Command {
	var addr string

	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API, the event bus and the user event worker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "HTTP listen address (defaults to HTTP_ADDR)",
				Destination: &addr,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			c := *cfg
			if addr != "" {
				c.HTTPAddr = addr
			}

			a, err := newApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.Close()

			a.bus.Start(ctx)

			handler := httppresentation.NewHandler(a.updateUsername, a.fetchProfile, a.cache, a.logger, a.tel)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
			mux.Handle("/", handler.Router())

			server := &http.Server{
				Addr:              c.HTTPAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				a.systemLogger.Info("http_server_start",
					zap.String("addr", server.Addr),
				)
				err := server.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.systemLogger.Error("http_server_error",
						zap.Error(err),
					)
				}
			}()

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				a.systemLogger.Error("http_server_shutdown_error",
					zap.Error(err),
				)
				return err
			}
			a.systemLogger.Info("http_server_stopped")
			return nil
		},
	}
}

func cmdUpdateUsername(cfg **config.Config) *cli.Command {
	var userID, username string

	return &cli.Command{
		Name:  "update-username",
		Usage: "Change a username once against the simulated user API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user-id", Usage: "id of the user to rename", Required: true, Destination: &userID},
			&cli.StringFlag{Name: "username", Usage: "new username", Required: true, Destination: &username},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			a, err := newApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.bus.Start(ctx)

			res := a.updateUsername.Execute(ctx, appuser.UpdateUsernameInput{UserID: userID, Username: username})
			return a.report(ctx, userID, res)
		},
	}
}

func cmdFetchProfile(cfg **config.Config) *cli.Command {
	var userID string

	return &cli.Command{
		Name:  "fetch-profile",
		Usage: "Fetch and cache a user profile once from the simulated user API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user-id", Usage: "id of the user to fetch", Required: true, Destination: &userID},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			a, err := newApp(ctx, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			a.bus.Start(ctx)

			res := a.fetchProfile.Execute(ctx, appuser.FetchUserProfileInput{UserID: userID})
			return a.report(ctx, userID, res)
		},
	}
}
