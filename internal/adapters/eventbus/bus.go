package eventbus

import (
	"EventBuzz/internal/core/ports"
	"context"

	"github.com/google/uuid"
)

// Bus is the synchronous event bus. Build one with NewBuilder.
type Bus struct {
	publisher *SyncPublisher
}

// Builder constructs a Bus. Each Build returns a bus with an empty registry.
type Builder struct {
	opts []Option
}

func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// With adds options to the builder.
func (b *Builder) With(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *Builder) Build() *Bus {
	return &Bus{publisher: NewSyncPublisher(b.opts...)}
}

func (b *Bus) ID() uuid.UUID { return b.publisher.ID() }

// Register adds a listener for events of type E.
func Register[E ports.Event](bus *Bus, listener ports.Listener[E]) {
	RegisterListener(bus.publisher, listener)
}

// Publish delivers event to the listeners registered for E; see PublishEvent.
func Publish[E ports.Event](bus *Bus, event E) error {
	return PublishEvent(bus.publisher, event)
}

func CountListeners[E ports.Event](bus *Bus) int {
	return SyncListenerCount[E](bus.publisher)
}

// AsyncBus is the asynchronous event bus. Build one with NewAsyncBuilder.
type AsyncBus struct {
	publisher *AsyncPublisher
}

type AsyncBuilder struct {
	opts []Option
}

func NewAsyncBuilder(opts ...Option) *AsyncBuilder {
	return &AsyncBuilder{opts: opts}
}

func (b *AsyncBuilder) With(opts ...Option) *AsyncBuilder {
	b.opts = append(b.opts, opts...)
	return b
}

func (b *AsyncBuilder) Build() *AsyncBus {
	return &AsyncBus{publisher: NewAsyncPublisher(b.opts...)}
}

func (b *AsyncBus) ID() uuid.UUID { return b.publisher.ID() }

// RegisterAsync adds a listener for events of type E; see RegisterAsyncListener.
func RegisterAsync[E ports.Event](ctx context.Context, bus *AsyncBus, listener ports.AsyncListener[E]) error {
	return RegisterAsyncListener(ctx, bus.publisher, listener)
}

// PublishAsync delivers event to the listeners registered for E; see PublishAsyncEvent.
func PublishAsync[E ports.Event](ctx context.Context, bus *AsyncBus, event E) error {
	return PublishAsyncEvent(ctx, bus.publisher, event)
}

func CountAsyncListeners[E ports.Event](ctx context.Context, bus *AsyncBus) (int, error) {
	return AsyncListenerCount[E](ctx, bus.publisher)
}
