package domain

import (
	"EventBuzz/internal/core/ports"
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Delays used by the demo listeners. The greeting is deliberately the slow one.
const (
	DefaultHelloDelay    = 1 * time.Second
	DefaultGreetingDelay = 3 * time.Second
	DefaultUpdateDelay   = 1 * time.Second
)

// announcer is the shared part of the demo listeners: it waits, then logs.
type announcer struct {
	log   zerolog.Logger
	delay time.Duration
}

func newAnnouncer(name string, delay time.Duration, baseLogger *zerolog.Logger) announcer {
	return announcer{
		log:   baseLogger.With().Str("component", name).Logger(),
		delay: delay,
	}
}

func (a announcer) announce(mode, message string) {
	a.log.Info().Str("mode", mode).Str("message", message).Msg("Received event")
}

// wait sleeps for the delay or until ctx ends, whichever is first.
func (a announcer) wait(ctx context.Context) error {
	if a.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(a.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HelloListener handles HelloEvent on either bus.
type HelloListener struct{ announcer }

func NewHelloListener(delay time.Duration, baseLogger *zerolog.Logger) *HelloListener {
	return &HelloListener{newAnnouncer("hello_listener", delay, baseLogger)}
}

var (
	_ ports.Listener[HelloEvent]      = (*HelloListener)(nil)
	_ ports.AsyncListener[HelloEvent] = AsyncHello{}
)

func (l *HelloListener) OnEvent(event HelloEvent) error {
	time.Sleep(l.delay)
	l.announce("sync", event.Message)
	return nil
}

// AsyncHello exposes a HelloListener through the async capability. A Go type
// cannot carry two OnEvent methods, so each async listener is a thin view.
type AsyncHello struct{ *HelloListener }

func (l AsyncHello) OnEvent(ctx context.Context, event HelloEvent) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	l.announce("async", event.Message)
	return nil
}

// GreetingListener is a second, slower HelloEvent listener.
type GreetingListener struct{ announcer }

func NewGreetingListener(delay time.Duration, baseLogger *zerolog.Logger) *GreetingListener {
	return &GreetingListener{newAnnouncer("greeting_listener", delay, baseLogger)}
}

func (l *GreetingListener) OnEvent(event HelloEvent) error {
	time.Sleep(l.delay)
	l.announce("sync", event.Message)
	return nil
}

type AsyncGreeting struct{ *GreetingListener }

func (l AsyncGreeting) OnEvent(ctx context.Context, event HelloEvent) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	l.announce("async", event.Message)
	return nil
}

// UpdateListener handles UpdateEvent.
type UpdateListener struct{ announcer }

func NewUpdateListener(delay time.Duration, baseLogger *zerolog.Logger) *UpdateListener {
	return &UpdateListener{newAnnouncer("update_listener", delay, baseLogger)}
}

func (l *UpdateListener) OnEvent(event UpdateEvent) error {
	time.Sleep(l.delay)
	l.announce("sync", event.Message)
	return nil
}

type AsyncUpdate struct{ *UpdateListener }

func (l AsyncUpdate) OnEvent(ctx context.Context, event UpdateEvent) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	l.announce("async", event.Message)
	return nil
}
