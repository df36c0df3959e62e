// Package live provides the observable building blocks of the view model:
// a mutable state cell with last-value semantics and a combine-latest
// operator over channels.
//
// Every observer channel is conflated. It has a buffer of one, and a new
// value replaces an unread one, so a slow observer always reads the most
// recent value and never blocks the writer.
package live

import (
	"context"
	"sync"
)

// Cell holds a single value and pushes every change to its observers.
// A new observer immediately receives the current value.
//
// Thread-safety: all methods are safe for concurrent use.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	equal  func(a, b T) bool
	nextID uint64
	subs   map[uint64]chan T
	closed bool
}

// NewCell creates a cell holding initial. When equal is non-nil, a Set or
// Update producing a value equal to the current one emits nothing.
func NewCell[T any](initial T, equal func(a, b T) bool) *Cell[T] {
	return &Cell[T]{
		value: initial,
		equal: equal,
		subs:  make(map[uint64]chan T),
	}
}

// Equal is the equality function for comparable value types.
func Equal[T comparable](a, b T) bool { return a == b }

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and reports whether observers were notified.
func (c *Cell[T]) Set(v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(v)
}

// Update applies fn to the current value atomically and stores the
// result. fn runs under the cell lock and must not call back into the
// cell. Returns the stored value.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(fn(c.value))
	return c.value
}

func (c *Cell[T]) setLocked(v T) bool {
	if c.equal != nil && c.equal(c.value, v) {
		return false
	}
	c.value = v
	if c.closed {
		return false
	}
	for _, ch := range c.subs {
		offer(ch, v)
	}
	return true
}

// Observe returns a channel that receives the current value and every
// later change. The channel is closed when ctx ends or the cell is closed.
func (c *Cell[T]) Observe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.value
	c.mu.Unlock()

	context.AfterFunc(ctx, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	})
	return ch
}

// Observers returns the number of open observer channels.
func (c *Cell[T]) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close closes every observer channel. Later Observe calls return a
// closed channel; Set keeps updating the value without notifying.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// offer replaces any unread value in ch with v. The caller must be the
// only sender on ch, so the send after the drain cannot block.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
