package metrics

import "time"

// Recorder receives bus activity. Implementations must be safe for
// concurrent use; the async bus reports from many goroutines at once.
type Recorder interface {
	ListenerRegistered(topic string, total int)
	EventPublished(topic, mode string)
	EventUnhandled(topic string)
	ListenerInvoked(topic string, elapsed time.Duration, err error)
}

// Noop discards everything. It is the default recorder.
type Noop struct{}

func (Noop) ListenerRegistered(string, int)               {}
func (Noop) EventPublished(string, string)                {}
func (Noop) EventUnhandled(string)                        {}
func (Noop) ListenerInvoked(string, time.Duration, error) {}
