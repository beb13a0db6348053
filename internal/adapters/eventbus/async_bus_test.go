package eventbus

import (
	"EventBuzz/internal/core/ports"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// MockAsyncHelloListener
type MockAsyncHelloListener struct {
	mock.Mock
}

var _ ports.AsyncListener[helloEvent] = (*MockAsyncHelloListener)(nil)

func (m *MockAsyncHelloListener) OnEvent(ctx context.Context, event helloEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestAsyncBus(opts ...Option) *AsyncBus {
	nopLogger := zerolog.Nop()
	return NewAsyncBuilder(WithLogger(&nopLogger)).With(opts...).Build()
}

// waitFor fails the test if ch does not deliver n values in time.
func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for signal %d of %d", i+1, n)
		}
	}
}

func TestAsyncPublish_NoListenersIsNoop(t *testing.T) {
	bus := newTestAsyncBus()

	require.NoError(t, PublishAsync(t.Context(), bus, helloEvent{message: "nobody"}))

	n, err := CountAsyncListeners[helloEvent](t.Context(), bus)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAsyncPublish_SequentialInRegistrationOrder(t *testing.T) {
	// 1. Setup
	ctx := t.Context()
	bus := newTestAsyncBus()

	var (
		mu    sync.Mutex
		calls []string
	)
	listener := func(name string, delay time.Duration) ports.AsyncListenerFunc[helloEvent] {
		return func(ctx context.Context, e helloEvent) error {
			time.Sleep(delay)
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, name+":"+e.message)
			return nil
		}
	}

	// 2. The slower listener is registered first and must still finish first
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, listener("L1", 20*time.Millisecond)))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, listener("L2", 0)))

	// 3. Publish
	require.NoError(t, PublishAsync(ctx, bus, helloEvent{message: "a"}))

	// 4. Assert
	assert.Equal(t, []string{"L1:a", "L2:a"}, calls)
}

func TestAsyncPublish_RoutesByType(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus()

	helloListener := new(MockAsyncHelloListener)
	var updates atomic.Int32
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, helloListener))
	require.NoError(t, RegisterAsync[updateEvent](ctx, bus, ports.AsyncListenerFunc[updateEvent](
		func(_ context.Context, e updateEvent) error {
			assert.Equal(t, "x", e.message)
			updates.Add(1)
			return nil
		})))

	require.NoError(t, PublishAsync(ctx, bus, updateEvent{message: "x"}))

	assert.Equal(t, int32(1), updates.Load())
	helloListener.AssertNotCalled(t, "OnEvent", mock.Anything, mock.Anything)
}

func TestAsyncPublish_ListenerReceivesCallerContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(t.Context(), ctxKey{}, "caller")
	bus := newTestAsyncBus()

	listener := new(MockAsyncHelloListener)
	listener.On("OnEvent", mock.MatchedBy(func(c context.Context) bool {
		return c.Value(ctxKey{}) == "caller"
	}), helloEvent{message: "ctx"}).Return(nil).Once()

	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, listener))
	require.NoError(t, PublishAsync(ctx, bus, helloEvent{message: "ctx"}))

	listener.AssertExpectations(t)
}

func TestAsyncPublish_ConcurrentPublishesShareTheRegistry(t *testing.T) {
	// 1. Setup: a listener that parks until released
	ctx := t.Context()
	bus := newTestAsyncBus()

	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	var delivered atomic.Int32

	parked := ports.AsyncListenerFunc[helloEvent](func(ctx context.Context, _ helloEvent) error {
		entered <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
		delivered.Add(1)
		return nil
	})
	counting := ports.AsyncListenerFunc[helloEvent](func(context.Context, helloEvent) error {
		delivered.Add(1)
		return nil
	})
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, parked))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, counting))

	// 2. Two publishes at once
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- PublishAsync(ctx, bus, helloEvent{message: "overlap"}) }()
	}

	// 3. Both are inside the parked listener at the same time
	waitFor(t, entered, 2)
	close(release)

	// 4. Each completed delivery to every listener
	for i := 0; i < 2; i++ {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, int32(4), delivered.Load())

	n, err := CountAsyncListeners[helloEvent](ctx, bus)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAsyncRegister_WaitsForInFlightPublish(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus()

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, ports.AsyncListenerFunc[helloEvent](
		func(context.Context, helloEvent) error {
			entered <- struct{}{}
			<-release
			return nil
		})))

	done := make(chan error, 1)
	go func() { done <- PublishAsync(ctx, bus, helloEvent{message: "slow"}) }()
	waitFor(t, entered, 1)

	// The read side is held, so the write side cannot be taken in time.
	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := RegisterAsync[updateEvent](shortCtx, bus, ports.AsyncListenerFunc[updateEvent](
		func(context.Context, updateEvent) error { return nil }))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	// Once the publish is over, registration goes through.
	require.NoError(t, RegisterAsync[updateEvent](ctx, bus, ports.AsyncListenerFunc[updateEvent](
		func(context.Context, updateEvent) error { return nil })))
	n, err := CountAsyncListeners[updateEvent](ctx, bus)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAsyncRegister_CancelledContextStoresNothing(t *testing.T) {
	bus := newTestAsyncBus()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := RegisterAsync[helloEvent](ctx, bus, new(MockAsyncHelloListener))

	assert.ErrorIs(t, err, ErrLockAcquire)
	assert.ErrorIs(t, err, context.Canceled)
	n, err := CountAsyncListeners[helloEvent](t.Context(), bus)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAsyncPublish_FailFast(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus()
	errBoom := errors.New("boom")
	event := helloEvent{message: "fail"}

	first := new(MockAsyncHelloListener)
	first.On("OnEvent", mock.Anything, event).Return(errBoom).Once()
	second := new(MockAsyncHelloListener)

	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, first))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, second))

	err := PublishAsync(ctx, bus, event)

	assert.ErrorIs(t, err, errBoom)
	var lerr *ListenerError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, 0, lerr.Index)
	first.AssertExpectations(t)
	second.AssertNotCalled(t, "OnEvent", mock.Anything, mock.Anything)
}

func TestAsyncPublish_ContinueOnError(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus(WithFailurePolicy(ContinueOnError))
	errBoom := errors.New("boom")
	event := helloEvent{message: "continue"}

	first := new(MockAsyncHelloListener)
	first.On("OnEvent", mock.Anything, event).Return(errBoom).Once()
	second := new(MockAsyncHelloListener)
	second.On("OnEvent", mock.Anything, event).Return(nil).Once()

	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, first))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, second))

	err := PublishAsync(ctx, bus, event)

	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, multierr.Errors(err), 1)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestAsyncPublish_ConcurrentDispatchRunsListenersTogether(t *testing.T) {
	// Each listener waits for the other to start. Sequential dispatch would
	// hang here; concurrent dispatch lets both through.
	ctx := t.Context()
	bus := newTestAsyncBus(WithDispatchMode(DispatchConcurrent))

	var started sync.WaitGroup
	started.Add(2)
	meet := ports.AsyncListenerFunc[helloEvent](func(ctx context.Context, _ helloEvent) error {
		started.Done()
		met := make(chan struct{})
		go func() { started.Wait(); close(met) }()
		select {
		case <-met:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("listeners did not run together")
		}
	})
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, meet))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, meet))

	require.NoError(t, PublishAsync(ctx, bus, helloEvent{message: "together"}))
}

func TestAsyncPublish_ConcurrentDispatchFailFastCancelsSiblings(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus(WithDispatchMode(DispatchConcurrent))
	errBoom := errors.New("boom")

	var sawCancel atomic.Bool
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, ports.AsyncListenerFunc[helloEvent](
		func(context.Context, helloEvent) error { return errBoom })))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, ports.AsyncListenerFunc[helloEvent](
		func(ctx context.Context, _ helloEvent) error {
			select {
			case <-ctx.Done():
				sawCancel.Store(true)
				return ctx.Err()
			case <-time.After(2 * time.Second):
				return nil
			}
		})))

	err := PublishAsync(ctx, bus, helloEvent{message: "cancel"})

	assert.ErrorIs(t, err, errBoom)
	assert.True(t, sawCancel.Load())
}

func TestAsyncPublish_ConcurrentDispatchReRaisesPanic(t *testing.T) {
	ctx := t.Context()
	bus := newTestAsyncBus(WithDispatchMode(DispatchConcurrent))
	var ran atomic.Int32

	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, ports.AsyncListenerFunc[helloEvent](
		func(context.Context, helloEvent) error { panic("async boom") })))
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, ports.AsyncListenerFunc[helloEvent](
		func(context.Context, helloEvent) error { ran.Add(1); return nil })))

	assert.PanicsWithValue(t, "async boom", func() {
		_ = PublishAsync(ctx, bus, helloEvent{message: "panic"})
	})

	// The read lock was released: registration still works.
	require.NoError(t, RegisterAsync[helloEvent](ctx, bus, new(MockAsyncHelloListener)))
	assert.Equal(t, int32(1), ran.Load())
}
