package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"haydigo.org/geoingest/internal/app"
	"haydigo.org/geoingest/internal/appconf"
	"haydigo.org/geoingest/internal/logging"
	"haydigo.org/geoingest/internal/restapi"
)

func main() {
	var (
		configPath string
		port       int
		rateLimit  int
	)
	flag.StringVar(&configPath, "config", "", "YAML configuration file")
	flag.IntVar(&port, "port", 0, "API server port (overrides config)")
	flag.IntVar(&rateLimit, "rate", -1, "Requests per second per API key (overrides config)")
	flag.Parse()

	cfg, err := appconf.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if port > 0 {
		cfg.API.Port = port
	}
	if rateLimit >= 0 {
		cfg.API.RateLimit = rateLimit
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger(os.Stdout, cfg.SlogLevel())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg appconf.Config, logger *slog.Logger) error {
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(context.WithoutCancel(ctx)); err != nil {
			logging.LogError(logger, "failed to close store", err)
		}
	}()

	api := restapi.NewRestAPI(application)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env.String()),
			slog.String("driver", cfg.Store.Driver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
