package ports

import "context"

// Event is implemented by every value that can be published on a bus.
// Topic is a label for logs and metrics only; delivery is keyed by the
// event's Go type. Implement it on a value receiver so the zero value
// of the type can report its topic.
type Event interface {
	Topic() string
}

// Listener receives events of exactly one type on a synchronous bus.
// Returning an error aborts delivery to the listeners registered after it
// (unless the bus is configured to continue on error).
type Listener[E Event] interface {
	OnEvent(event E) error
}

// AsyncListener receives events of exactly one type on an asynchronous bus.
// The context is the publisher's context.
type AsyncListener[E Event] interface {
	OnEvent(ctx context.Context, event E) error
}

// ListenerFunc adapts a plain function to a Listener.
type ListenerFunc[E Event] func(event E) error

func (f ListenerFunc[E]) OnEvent(event E) error {
	return f(event)
}

// AsyncListenerFunc adapts a plain function to an AsyncListener.
type AsyncListenerFunc[E Event] func(ctx context.Context, event E) error

func (f AsyncListenerFunc[E]) OnEvent(ctx context.Context, event E) error {
	return f(ctx, event)
}
