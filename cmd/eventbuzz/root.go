package main

import (
	"EventBuzz/internal/adapters/eventbus"
	"EventBuzz/internal/shared/config"
	"EventBuzz/internal/shared/logger"
	"EventBuzz/internal/shared/metrics"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type rootOptions struct {
	metricsAddr string
	noDelay     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "eventbuzz",
		Short:        "Run the in-process event bus demo",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, runSyncDemo, runAsyncDemo)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides METRICS_ADDR)")
	cmd.PersistentFlags().BoolVar(&opts.noDelay, "no-delay", false, "make the demo listeners return immediately")

	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newAsyncCmd(opts))
	return cmd
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Publish the demo events on the blocking bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, runSyncDemo)
		},
	}
}

func newAsyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "async",
		Short: "Publish the demo events on the context-aware bus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, runAsyncDemo)
		},
	}
}

// demo is one scenario run against the buses provided by fx.
type demo func(ctx context.Context, d demoDeps) error

type demoDeps struct {
	Bus      *eventbus.Bus
	AsyncBus *eventbus.AsyncBus
	Logger   *zerolog.Logger
	Delays   delays
}

func run(ctx context.Context, opts *rootOptions, demos ...demo) error {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}

	// 2. Initialize Logger
	baseLogger := logger.New(cfg.IsDev(), cfg.LogLevel)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("failure_policy", cfg.EventBus.FailurePolicy).
		Str("async_dispatch", cfg.EventBus.AsyncDispatch).
		Msg("Configuration loaded")

	// 3. Metrics
	prom := metrics.NewProm()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: prom.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				baseLogger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("Metrics server stopped")
			}
		}()
		defer srv.Close()
		baseLogger.Info().Str("addr", cfg.Metrics.Addr).Msg("Serving metrics")
	}

	// 4. Wire the buses
	var deps demoDeps
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, &baseLogger),
		fx.Provide(func() metrics.Recorder { return prom }),
		eventbus.Module(),
		fx.Populate(&deps.Bus, &deps.AsyncBus),
	)
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			baseLogger.Error().Err(err).Msg("Failed to stop application")
		}
	}()

	deps.Logger = &baseLogger
	deps.Delays = defaultDelays()
	if opts.noDelay {
		deps.Delays = delays{}
	}

	// 5. Run the scenarios
	for _, d := range demos {
		if err := d(ctx, deps); err != nil {
			baseLogger.Error().Err(err).Msg("Demo failed")
			return err
		}
	}

	baseLogger.Info().Msg("Demo finished")
	return nil
}
