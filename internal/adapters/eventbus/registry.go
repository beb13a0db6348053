package eventbus

import (
	"EventBuzz/internal/core/ports"
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// entry is a type-erased listener. The concrete listener sits behind `any`
// and is recovered with a checked assertion at publish time.
type entry struct {
	id        uuid.UUID
	eventType reflect.Type
	name      string
	listener  any
}

// newEntry is the only way entries are built. Pairing the key with the
// listener's event type here, under one type parameter, is what keeps every
// entry stored under the key it belongs to.
func newEntry[E ports.Event](listener any) entry {
	return entry{
		id:        uuid.New(),
		eventType: keyOf[E](),
		name:      fmt.Sprintf("%T", listener),
		listener:  listener,
	}
}

func keyOf[E ports.Event]() reflect.Type {
	return reflect.TypeFor[E]()
}

// topicOf asks the zero value for its topic; topics are per type.
func topicOf[E ports.Event]() string {
	var zero E
	return zero.Topic()
}

// listenerAs recovers the concrete listener capability L from an entry.
// A failed assertion cannot happen through the public API and panics.
func listenerAs[L any](key reflect.Type, e entry) L {
	l, ok := e.listener.(L)
	if !ok || e.eventType != key {
		panic(mismatch(key, e.listener))
	}
	return l
}

// listenerTable is the unguarded map behind both registries.
type listenerTable map[reflect.Type][]entry

func (t listenerTable) get(key reflect.Type) ([]entry, bool) {
	entries, ok := t[key]
	return entries, ok
}

func (t listenerTable) insert(e entry) int {
	t[e.eventType] = append(t[e.eventType], e)
	return len(t[e.eventType])
}

// registry maps event types to their listeners, in registration order.
// There is no removal.
type registry interface {
	// insert appends e under its event type and returns the new count for that type.
	insert(ctx context.Context, e entry) (int, error)
	// view runs fn over the entries for key while holding shared access.
	// found is false, and fn is not called, when nothing is registered for key.
	view(ctx context.Context, key reflect.Type, fn func([]entry) error) (found bool, err error)
	count(ctx context.Context, key reflect.Type) (int, error)
}

// mutexRegistry serializes every operation, publishes included, behind one
// mutex. The context is not consulted.
type mutexRegistry struct {
	mu    sync.Mutex
	table listenerTable
}

var _ registry = (*mutexRegistry)(nil)

func newMutexRegistry() *mutexRegistry {
	return &mutexRegistry{table: make(listenerTable)}
}

func (r *mutexRegistry) insert(_ context.Context, e entry) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.table.insert(e), nil
}

func (r *mutexRegistry) view(_ context.Context, key reflect.Type, fn func([]entry) error) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock() // also runs when a listener panics

	entries, ok := r.table.get(key)
	if !ok {
		return false, nil
	}
	return true, fn(entries)
}

func (r *mutexRegistry) count(_ context.Context, key reflect.Type) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.table[key]), nil
}

// rwRegistry lets views run in parallel with each other, never with an insert.
type rwRegistry struct {
	lock  *asyncRWLock
	table listenerTable
}

var _ registry = (*rwRegistry)(nil)

func newRWRegistry() *rwRegistry {
	return &rwRegistry{lock: newAsyncRWLock(), table: make(listenerTable)}
}

func (r *rwRegistry) insert(ctx context.Context, e entry) (int, error) {
	if err := r.lock.Lock(ctx); err != nil {
		return 0, err
	}
	defer r.lock.Unlock()
	return r.table.insert(e), nil
}

func (r *rwRegistry) view(ctx context.Context, key reflect.Type, fn func([]entry) error) (bool, error) {
	if err := r.lock.RLock(ctx); err != nil {
		return false, err
	}
	defer r.lock.RUnlock()

	entries, ok := r.table.get(key)
	if !ok {
		return false, nil
	}
	return true, fn(entries)
}

func (r *rwRegistry) count(ctx context.Context, key reflect.Type) (int, error) {
	if err := r.lock.RLock(ctx); err != nil {
		return 0, err
	}
	defer r.lock.RUnlock()
	return len(r.table[key]), nil
}
