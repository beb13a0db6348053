package eventbus

import (
	"EventBuzz/internal/core/ports"
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// AsyncPublisher delivers events through context-aware listeners. The
// registry sits behind a reader/writer lock: publishes share the read side
// and may overlap each other, registrations take the write side.
//
// Listeners can therefore be called concurrently by two publishes racing on
// the read side; a listener with mutable state must guard it itself.
type AsyncPublisher struct {
	publisherCore
	dispatch DispatchMode
}

func NewAsyncPublisher(opts ...Option) *AsyncPublisher {
	s := newSettings(opts)
	return &AsyncPublisher{
		publisherCore: newPublisherCore(modeAsync, "async_publisher", newRWRegistry(), s),
		dispatch:      s.mode,
	}
}

func (p *AsyncPublisher) ID() uuid.UUID { return p.id }

// RegisterAsyncListener appends listener to the listeners for E. It waits
// for in-flight publishes to release the registry; if ctx ends first nothing
// is registered and an error wrapping ErrLockAcquire is returned.
func RegisterAsyncListener[E ports.Event](ctx context.Context, p *AsyncPublisher, listener ports.AsyncListener[E]) error {
	e := newEntry[E](listener)
	total, err := p.registry.insert(ctx, e)
	if err != nil {
		return fmt.Errorf("register %s: %w", e.eventType, err)
	}
	p.registered(e, topicOf[E](), total)
	return nil
}

// PublishAsyncEvent delivers event to every listener registered for E and
// returns once they have all finished. ctx is handed to each listener; the
// bus itself never times out.
func PublishAsyncEvent[E ports.Event](ctx context.Context, p *AsyncPublisher, event E) error {
	key := keyOf[E]()
	topic := event.Topic()
	start := time.Now()

	found, err := p.registry.view(ctx, key, func(entries []entry) error {
		if p.dispatch == DispatchConcurrent {
			return dispatchConcurrent(ctx, p, key, topic, entries, event)
		}
		return dispatchSequential(ctx, p, key, topic, entries, event)
	})
	if err != nil && !found {
		// Only lock acquisition fails before the lookup.
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.published(key, topic, found, start, err)
	return err
}

func dispatchSequential[E ports.Event](ctx context.Context, p *AsyncPublisher, key reflect.Type, topic string, entries []entry, event E) error {
	var errs error
	for i, e := range entries {
		l := listenerAs[ports.AsyncListener[E]](key, e)
		if err := p.invoke(topic, func() error { return l.OnEvent(ctx, event) }); err != nil {
			lerr := p.failed(key, topic, i, e, err)
			if p.policy == FailFast {
				return lerr
			}
			errs = multierr.Append(errs, lerr)
		}
	}
	return errs
}

// dispatchConcurrent runs every listener in its own goroutine. Under
// FailFast the first failure cancels the context the others see and is the
// one returned. A listener panic is carried back and re-raised on the
// publishing goroutine once every listener has returned.
func dispatchConcurrent[E ports.Event](ctx context.Context, p *AsyncPublisher, key reflect.Type, topic string, entries []entry, event E) error {
	var (
		g      *errgroup.Group
		gctx   = ctx
		mu     sync.Mutex
		errs   error
		panicV any
		once   sync.Once
	)
	if p.policy == FailFast {
		g, gctx = errgroup.WithContext(ctx)
	} else {
		g = new(errgroup.Group)
	}

	for i, e := range entries {
		l := listenerAs[ports.AsyncListener[E]](key, e)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { panicV = r })
					err = fmt.Errorf("listener %s panicked", e.name)
				}
			}()

			callErr := p.invoke(topic, func() error { return l.OnEvent(gctx, event) })
			if callErr == nil {
				return nil
			}
			lerr := p.failed(key, topic, i, e, callErr)
			if p.policy == FailFast {
				return lerr
			}
			mu.Lock()
			errs = multierr.Append(errs, lerr)
			mu.Unlock()
			return nil
		})
	}

	waitErr := g.Wait()
	if panicV != nil {
		panic(panicV)
	}
	if p.policy == FailFast {
		return waitErr
	}
	return errs
}

// AsyncListenerCount reports how many listeners are registered for E.
func AsyncListenerCount[E ports.Event](ctx context.Context, p *AsyncPublisher) (int, error) {
	return p.registry.count(ctx, keyOf[E]())
}
