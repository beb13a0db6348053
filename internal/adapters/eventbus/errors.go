package eventbus

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

var (
	// ErrTypeMismatch marks a registry entry stored under the wrong event type.
	// Registration is generic over the event type, so seeing this is a bug in
	// the bus itself; it is raised as a panic, never returned.
	ErrTypeMismatch = errors.New("eventbus: listener stored under wrong event type")

	// ErrLockAcquire is returned when the async registry lock could not be
	// taken before the caller's context ended.
	ErrLockAcquire = errors.New("eventbus: could not acquire registry lock")
)

// ListenerError reports a listener that failed while handling an event.
type ListenerError struct {
	BusID      uuid.UUID
	EventType  reflect.Type
	Topic      string
	Index      int // position in registration order
	ListenerID uuid.UUID
	Listener   string
	Err        error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("eventbus: listener %s (#%d) failed on %s [%s]: %v",
		e.Listener, e.Index, e.EventType, e.Topic, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

func mismatch(key reflect.Type, stored any) error {
	return fmt.Errorf("%w: key %s holds %T", ErrTypeMismatch, key, stored)
}
