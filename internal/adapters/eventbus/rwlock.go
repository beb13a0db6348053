package eventbus

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds how many readers can hold the lock at once. A writer
// takes every slot, so it waits for readers to drain and blocks new ones.
const maxReaders = 1 << 20

// asyncRWLock is a reader/writer lock whose acquisition can be abandoned
// through a context. The semaphore serves waiters in FIFO order, so a
// waiting writer is not starved by a stream of readers.
type asyncRWLock struct {
	sem *semaphore.Weighted
}

func newAsyncRWLock() *asyncRWLock {
	return &asyncRWLock{sem: semaphore.NewWeighted(maxReaders)}
}

func (l *asyncRWLock) RLock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w (read): %w", ErrLockAcquire, err)
	}
	return nil
}

func (l *asyncRWLock) RUnlock() { l.sem.Release(1) }

func (l *asyncRWLock) Lock(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, maxReaders); err != nil {
		return fmt.Errorf("%w (write): %w", ErrLockAcquire, err)
	}
	return nil
}

func (l *asyncRWLock) Unlock() { l.sem.Release(maxReaders) }
