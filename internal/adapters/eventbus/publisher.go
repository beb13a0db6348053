package eventbus

import (
	"EventBuzz/internal/core/ports"
	"EventBuzz/internal/shared/metrics"
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

const (
	modeSync  = "sync"
	modeAsync = "async"
)

// publisherCore holds what both publishers share: identity, logging,
// metrics, the failure policy and the registry itself.
type publisherCore struct {
	id       uuid.UUID
	mode     string
	log      zerolog.Logger
	policy   FailurePolicy
	metrics  metrics.Recorder
	registry registry
}

func newPublisherCore(mode, component string, reg registry, s settings) publisherCore {
	id := uuid.New()
	return publisherCore{
		id:   id,
		mode: mode,
		log: s.log.With().
			Str("component", component).
			Str("bus_id", id.String()).
			Logger(),
		policy:   s.policy,
		metrics:  s.metrics,
		registry: reg,
	}
}

func (c *publisherCore) registered(e entry, topic string, total int) {
	c.metrics.ListenerRegistered(topic, total)
	c.log.Info().
		Str("event_type", e.eventType.String()).
		Str("topic", topic).
		Str("listener", e.name).
		Str("listener_id", e.id.String()).
		Int("listeners", total).
		Msg("Listener registered")
}

func (c *publisherCore) published(key reflect.Type, topic string, found bool, start time.Time, err error) {
	c.metrics.EventPublished(topic, c.mode)
	if !found {
		// Publishing with nobody listening is fine.
		c.metrics.EventUnhandled(topic)
		c.log.Debug().Str("event_type", key.String()).Str("topic", topic).Msg("Published event with no listeners")
		return
	}
	c.log.Debug().
		Str("event_type", key.String()).
		Str("topic", topic).
		Dur("elapsed", time.Since(start)).
		Bool("failed", err != nil).
		Msg("Event published")
}

// invoke times a single listener call.
func (c *publisherCore) invoke(topic string, call func() error) error {
	start := time.Now()
	err := call()
	c.metrics.ListenerInvoked(topic, time.Since(start), err)
	return err
}

func (c *publisherCore) failed(key reflect.Type, topic string, index int, e entry, err error) *ListenerError {
	lerr := &ListenerError{
		BusID:      c.id,
		EventType:  key,
		Topic:      topic,
		Index:      index,
		ListenerID: e.id,
		Listener:   e.name,
		Err:        err,
	}
	c.log.Error().Err(err).
		Str("event_type", key.String()).
		Str("topic", topic).
		Str("listener", e.name).
		Int("index", index).
		Str("policy", c.policy.String()).
		Msg("Listener failed")
	return lerr
}

// SyncPublisher delivers events on the publishing goroutine. One mutex
// guards the registry for registrations and for the whole of each publish,
// so publishes on the same publisher never overlap. A listener must not
// register or publish on the publisher that is calling it.
type SyncPublisher struct {
	publisherCore
}

func NewSyncPublisher(opts ...Option) *SyncPublisher {
	s := newSettings(opts)
	return &SyncPublisher{
		publisherCore: newPublisherCore(modeSync, "sync_publisher", newMutexRegistry(), s),
	}
}

// ID identifies the publisher in log lines and listener errors.
func (p *SyncPublisher) ID() uuid.UUID { return p.id }

// RegisterListener appends listener to the listeners for E.
func RegisterListener[E ports.Event](p *SyncPublisher, listener ports.Listener[E]) {
	e := newEntry[E](listener)
	total, _ := p.registry.insert(context.Background(), e) // the mutex registry never fails
	p.registered(e, topicOf[E](), total)
}

// PublishEvent calls every listener registered for E, in registration order,
// before returning. Publishing a type nobody listens to is a no-op.
//
// Under FailFast the first failing listener ends delivery and its
// *ListenerError is returned. Under ContinueOnError every listener runs and
// the failures are combined. A panicking listener unwinds through here.
func PublishEvent[E ports.Event](p *SyncPublisher, event E) error {
	key := keyOf[E]()
	topic := event.Topic()
	start := time.Now()

	found, err := p.registry.view(context.Background(), key, func(entries []entry) error {
		var errs error
		for i, e := range entries {
			l := listenerAs[ports.Listener[E]](key, e)
			if err := p.invoke(topic, func() error { return l.OnEvent(event) }); err != nil {
				lerr := p.failed(key, topic, i, e, err)
				if p.policy == FailFast {
					return lerr
				}
				errs = multierr.Append(errs, lerr)
			}
		}
		return errs
	})

	p.published(key, topic, found, start, err)
	return err
}

// SyncListenerCount reports how many listeners are registered for E.
func SyncListenerCount[E ports.Event](p *SyncPublisher) int {
	n, _ := p.registry.count(context.Background(), keyOf[E]())
	return n
}
