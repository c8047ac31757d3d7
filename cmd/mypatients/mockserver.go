package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	appconfig "github.com/wolfman30/mypatients/internal/config"
	"github.com/wolfman30/mypatients/internal/mockapi"
	"github.com/wolfman30/mypatients/pkg/logging"
)

func mockServerCmd(cfg *appconfig.Config) *cli.Command {
	return &cli.Command{
		Name:  "mock-server",
		Usage: "Serve an in-memory practice API for local use",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.MockAPIPort},
			&cli.DurationFlag{Name: "token-ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			logger := logging.New(cfg.LogLevel)
			mock := mockapi.New(mockapi.Config{TokenTTL: c.Duration("token-ttl"), Logger: logger})

			r := chi.NewRouter()
			r.Handle("/metrics", promhttp.Handler())
			r.Mount("/", mock.Handler())

			srv := &http.Server{
				Addr:         ":" + c.String("port"),
				Handler:      r,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("mock api listening",
					"addr", srv.Addr,
					"email", mockapi.SeedEmail,
					"password", mockapi.SeedPassword,
				)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down mock api...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
