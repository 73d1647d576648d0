package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/ilsfeed/internal/config"
	"github.com/roach88/ilsfeed/internal/engine"
	"github.com/roach88/ilsfeed/internal/pgstore"
	"github.com/roach88/ilsfeed/internal/store"
)

// loadConfig resolves the configuration for a command. Failures are
// command errors (exit code 2).
func loadConfig(opts *RootOptions) (*config.Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg, err := config.Load(opts.ConfigPath, getenv)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the log settings. --verbose
// forces debug level.
func newLogger(cfg config.LogConfig, verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	hopts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	return slog.New(handler)
}

// openState opens the configured state backend. The returned func closes
// it.
func openState(ctx context.Context, cfg *config.Config, logger *slog.Logger) (engine.StateStore, func(), error) {
	switch cfg.State.Driver {
	case "postgres":
		pool, err := pgstore.OpenPool(ctx, pgstore.PoolConfig{
			DSN:      cfg.State.DSN,
			MaxConns: cfg.State.MaxConns,
		})
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open state database", err)
		}
		st := pgstore.New(pool, pgstore.WithSchema(cfg.State.Schema))
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, WrapExitError(ExitCommandError, "failed to prepare state schema", err)
		}
		logger.Info("state database ready", "driver", "postgres", "schema", cfg.State.Schema)
		return st, pool.Close, nil

	default:
		st, err := store.Open(cfg.State.DSN)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open state database", err)
		}
		logger.Info("state database ready", "driver", "sqlite", "path", cfg.State.DSN)
		return st, func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}, nil
	}
}

type stateHandle = engine.StateStore

// withState loads the configuration, opens the state backend and hands it
// to fn.
func withState(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, st stateHandle) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, closeState, err := openState(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeState()
	return fn(ctx, st)
}

// serveMetrics exposes reg on addr until ctx is done. A blank addr
// disables the endpoint.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *slog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// signalContext returns a context cancelled on SIGINT/SIGTERM or when the
// command's own context ends.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// isShutdown reports whether err only signals a requested stop.
func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func describeWatermark(ts time.Time, ok bool) string {
	if !ok {
		return "(unset)"
	}
	return ts.UTC().Format(time.RFC3339Nano)
}
