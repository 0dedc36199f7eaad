package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/jaekwang-park/todo-lite/internal/config"
	todohttp "github.com/jaekwang-park/todo-lite/internal/http"
	"github.com/jaekwang-park/todo-lite/internal/metrics"
	"github.com/jaekwang-park/todo-lite/internal/repository"
	"github.com/jaekwang-park/todo-lite/internal/service"
	"github.com/jaekwang-park/todo-lite/internal/tracing"
)

func main() {
	// Initial logger at info level; reconfigured after config load
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.ParseLogLevel()}
	if strings.EqualFold(cfg.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.FromArgs(args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"env", cfg.AppEnv,
		"port", cfg.ServerPort,
		"log_level", cfg.LogLevel,
		"metrics_enabled", cfg.Metrics.Enabled,
		"trace_exporter", cfg.Tracing.Exporter,
	)

	// Tracing; spans go to stderr so they do not interleave with JSON logs
	tp, err := tracing.NewProvider(cfg.Tracing.Exporter, cfg.Tracing.ServiceName, os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", "error", err)
		}
	}()

	// Store + service
	store := repository.NewTodoStore()

	serverOpts := []todohttp.ServerOption{todohttp.WithTracerProvider(tp)}
	var svcOpts []service.Option
	if cfg.Metrics.Enabled {
		m := metrics.New()
		svcOpts = append(svcOpts, service.WithCreatedRecorder(m))
		serverOpts = append(serverOpts, todohttp.WithMetrics(m))
	}
	todoSvc := service.NewTodoService(store, svcOpts...)

	// HTTP Server
	srv := todohttp.NewServer(cfg.ServerPort, logger, todoSvc, serverOpts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info("server starting", "port", cfg.ServerPort)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped gracefully", "todos", store.Len())
	return nil
}
