package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/wheel/internal/adapters/store"
	app "github.com/okian/wheel/internal/app"
	"github.com/okian/wheel/internal/config"
	"github.com/okian/wheel/internal/shell"
	"github.com/okian/wheel/pkg/logger"
	"github.com/okian/wheel/pkg/metrics"
)

// shutdownTimeout bounds the final save after the shell exits.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(context.Background())
	if err != nil {
		// The logger isn't initialized yet; report straight to stderr.
		reportInitError(os.Stderr, "load config", err)
		os.Exit(1)
	}

	// Initialize logging. Logs go to stderr so the shell owns stdout.
	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		reportInitError(os.Stderr, "initialize logging", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(context.Background(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "wheel exited with error", logger.Error(err))
		os.Exit(1)
	}
}

// reportInitError writes a startup failure that happens before logging works.
func reportInitError(w io.Writer, step string, err error) {
	_, _ = fmt.Fprintf(w, "failed to %s: %v\n", step, err)
}

// run starts the wheel, hands it to the shell, and shuts it down when the
// shell returns for any reason.
func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, log logger.Logger) error {
	svc, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		_ = svc.Shutdown(context.Background())
		return err
	}

	shellErr := shell.New(svc, in, out, shell.WithLogger(log.Named("shell"))).Run(ctx)

	// The root context may already be cancelled by a signal; the final save
	// still needs to happen.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutdown failed", logger.Error(err))
		if shellErr == nil {
			return err
		}
	}
	return shellErr
}

// buildService opens the configured store and wires the wheel service.
func buildService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	backend, err := cfg.Backend()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(backend, cfg.WeightsPath, store.WithGdataApp(cfg.GdataApp))
	if err != nil {
		return nil, err
	}
	log.Debug(context.Background(), "weight store opened",
		logger.String("store", string(backend)),
		logger.String("path", cfg.WeightsPath),
	)

	return app.New(
		app.WithLogger(log.Named("wheel")),
		app.WithEntrants(cfg.Entrants),
		app.WithStore(st),
		app.WithMetrics(metrics.Default()),
		app.WithMode(mode),
		app.WithMaxWeight(cfg.MaxWeight),
		app.WithSeed(cfg.Seed),
		app.WithMetricsTextfile(cfg.MetricsTextfile),
	), nil
}
