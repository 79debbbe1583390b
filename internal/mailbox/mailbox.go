// Package mailbox provides the single-slot handoff between cron triggers
// and an engine's run loop. It is not a queue: a trigger landing while a
// run is still in flight replaces any pending one, which is what keeps
// same-engine runs from piling up behind a slow filesystem.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox holds at most one pending item. Put never blocks and always
// wins; Take blocks until an item is available or the context ends.
type Mailbox[T any] struct {
	mu sync.Mutex
	ch chan T
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ch: make(chan T, 1)}
}

// Put stores item, replacing any pending one.
func (m *Mailbox[T]) Put(item T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.ch:
	default:
	}
	m.ch <- item
}

// Take blocks until an item is available. The second return is false when
// the context ended first.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	select {
	case item := <-m.ch:
		return item, true
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryTake returns the pending item, if any, without blocking.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case item := <-m.ch:
		return item, true
	default:
		var zero T
		return zero, false
	}
}
