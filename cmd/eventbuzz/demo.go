package main

import (
	"EventBuzz/internal/adapters/eventbus"
	"EventBuzz/internal/core/domain"
	"context"
	"fmt"
	"time"
)

type delays struct {
	hello, greeting, update time.Duration
}

func defaultDelays() delays {
	return delays{
		hello:    domain.DefaultHelloDelay,
		greeting: domain.DefaultGreetingDelay,
		update:   domain.DefaultUpdateDelay,
	}
}

// runSyncDemo registers two HelloEvent listeners and one UpdateEvent
// listener, then publishes one event of each type. Each publish returns
// only after its listeners are done.
func runSyncDemo(_ context.Context, d demoDeps) error {
	log := d.Logger.With().Str("component", "sync_demo").Logger()
	bus := d.Bus

	eventbus.Register[domain.HelloEvent](bus, domain.NewHelloListener(d.Delays.hello, d.Logger))
	eventbus.Register[domain.HelloEvent](bus, domain.NewGreetingListener(d.Delays.greeting, d.Logger))
	eventbus.Register[domain.UpdateEvent](bus, domain.NewUpdateListener(d.Delays.update, d.Logger))

	log.Info().Msg("Publishing HelloEvent")
	start := time.Now()
	if err := eventbus.Publish(bus, domain.HelloEvent{Message: "Hello, Go!"}); err != nil {
		return fmt.Errorf("publish hello: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("HelloEvent delivered")

	log.Info().Msg("Publishing UpdateEvent")
	start = time.Now()
	if err := eventbus.Publish(bus, domain.UpdateEvent{Message: "Hello, Go!"}); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("UpdateEvent delivered")
	return nil
}

// runAsyncDemo is the same scenario on the async bus.
func runAsyncDemo(ctx context.Context, d demoDeps) error {
	log := d.Logger.With().Str("component", "async_demo").Logger()
	bus := d.AsyncBus

	if err := eventbus.RegisterAsync[domain.HelloEvent](ctx, bus, domain.AsyncHello{HelloListener: domain.NewHelloListener(d.Delays.hello, d.Logger)}); err != nil {
		return err
	}
	if err := eventbus.RegisterAsync[domain.HelloEvent](ctx, bus, domain.AsyncGreeting{GreetingListener: domain.NewGreetingListener(d.Delays.greeting, d.Logger)}); err != nil {
		return err
	}
	if err := eventbus.RegisterAsync[domain.UpdateEvent](ctx, bus, domain.AsyncUpdate{UpdateListener: domain.NewUpdateListener(d.Delays.update, d.Logger)}); err != nil {
		return err
	}

	log.Info().Msg("Publishing HelloEvent")
	start := time.Now()
	if err := eventbus.PublishAsync(ctx, bus, domain.HelloEvent{Message: "Hello, Go!"}); err != nil {
		return fmt.Errorf("publish hello: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("HelloEvent delivered")

	log.Info().Msg("Publishing UpdateEvent")
	start = time.Now()
	if err := eventbus.PublishAsync(ctx, bus, domain.UpdateEvent{Message: "Hello, Go!"}); err != nil {
		return fmt.Errorf("publish update: %w", err)
	}
	log.Info().Dur("elapsed", time.Since(start)).Msg("UpdateEvent delivered")
	return nil
}
