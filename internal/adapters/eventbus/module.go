package eventbus

import (
	"EventBuzz/internal/shared/config"
	"EventBuzz/internal/shared/metrics"
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Params are the dependencies the fx module expects to find in the graph.
type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zerolog.Logger
	Metrics metrics.Recorder `optional:"true"`
}

// Result is what the module provides: one bus of each flavour, built from
// the same configuration.
type Result struct {
	fx.Out

	Bus      *Bus
	AsyncBus *AsyncBus
}

// Module wires both buses into an fx application.
func Module() fx.Option {
	return fx.Module("eventbus",
		fx.Provide(ProvideBuses),
		fx.Invoke(registerLifecycle),
	)
}

func ProvideBuses(p Params) (Result, error) {
	opts, err := FromConfig(p.Config)
	if err != nil {
		return Result{}, err
	}
	opts = append(opts, WithLogger(p.Logger), WithMetrics(p.Metrics))

	return Result{
		Bus:      NewBuilder(opts...).Build(),
		AsyncBus: NewAsyncBuilder(opts...).Build(),
	}, nil
}

type lifecycleParams struct {
	fx.In

	LC       fx.Lifecycle
	Logger   *zerolog.Logger
	Bus      *Bus
	AsyncBus *AsyncBus
}

// registerLifecycle only logs; the buses need no start or drain phase.
func registerLifecycle(p lifecycleParams) {
	log := p.Logger.With().Str("component", "eventbus_module").Logger()
	p.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			log.Info().
				Str("sync_bus", p.Bus.ID().String()).
				Str("async_bus", p.AsyncBus.ID().String()).
				Msg("Event buses ready")
			return nil
		},
		OnStop: func(_ context.Context) error {
			log.Info().Msg("Event buses released")
			return nil
		},
	})
}
