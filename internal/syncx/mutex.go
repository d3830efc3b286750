// Package syncx provides a FIFO mutex with direct lock hand-off.
package syncx

import (
	"context"
	"sync"
)

// Mutex is a mutual-exclusion lock that grants ownership in strict arrival
// order. On Unlock the lock is handed directly to the oldest waiter instead
// of being released and re-acquired, so there is no window in which a late
// arrival can overtake a queued one.
//
// Mutex is not reentrant. A goroutine that calls Lock (or RunExclusive)
// while already holding the lock deadlocks.
//
// The zero value is an unlocked mutex.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

// Lock acquires the mutex, blocking until it is available or ctx is done.
// Waiters are served in FIFO order. On context cancellation the waiter is
// removed from the queue and the lock is left untouched.
func (m *Mutex) Lock(ctx context.Context) error {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return nil
	}

	ch := make(chan struct{})
	m.waiters = append(m.waiters, ch)
	m.mu.Unlock()

	select {
	case <-ch:
		// Ownership was handed to us by Unlock; locked is still true.
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		for i, w := range m.waiters {
			if w == ch {
				m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
				m.mu.Unlock()
				return ctx.Err()
			}
		}
		m.mu.Unlock()
		// We were already dequeued: the hand-off raced with cancellation
		// and the lock is (or is about to be) ours. Take it and give it
		// back so the next waiter is not starved.
		<-ch
		m.Unlock()
		return ctx.Err()
	}
}

// Unlock releases the mutex. If goroutines are waiting, ownership is
// transferred directly to the oldest waiter. Unlocking an unlocked
// Mutex panics.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("syncx: unlock of unlocked Mutex")
	}
	if len(m.waiters) > 0 {
		ch := m.waiters[0]
		m.waiters = m.waiters[1:]
		m.mu.Unlock()
		close(ch)
		return
	}
	m.locked = false
	m.mu.Unlock()
}

// RunExclusive runs fn while holding the mutex. The lock is released when
// fn returns, whether or not it panics. The error from Lock is returned
// if acquisition fails; otherwise the result of fn is returned.
func (m *Mutex) RunExclusive(ctx context.Context, fn func() error) error {
	if err := m.Lock(ctx); err != nil {
		return err
	}
	defer m.Unlock()
	return fn()
}
