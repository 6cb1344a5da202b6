package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamhub/backend/internal/config"
	"github.com/streamhub/backend/internal/db"
	"github.com/streamhub/backend/internal/httpserver"
	"github.com/streamhub/backend/internal/logging"
)

// Run dispatches the serve, migrate and seed commands of the StreamHub backend.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true, Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	var pool db.Pool
	if cfg.Store == "postgres" {
		pgPool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: cfg.DatabaseMaxConns})
		if err != nil {
			return err
		}
		defer pgPool.Close()
		pool = pgPool
	}

	deps, cleanup, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(context.Background()); err != nil {
			logger.Warn("release dependencies", "error", err)
		}
	}()

	srv := httpserver.New(cfg.AppPort, newHandler(logger, deps), httpserver.Options{
		WriteTimeout: cfg.HTTPWriteTimeout,
	})

	logger.Info("starting http server", "port", cfg.AppPort, "store", cfg.Store)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
