package types

import (
	"iter"
	"slices"
	"sync"
	"sync/atomic"
)

// Callbacks is a registry of callbacks kept in the order of registration.
// Registration copies the set, iteration reads an immutable snapshot without locking,
// so callbacks may register or remove callbacks while being called.
// The zero value is ready to use.
type Callbacks[T any] struct {
	mu     sync.Mutex
	nextID uint64
	snap   atomic.Pointer[[]callbackEntry[T]]
}

type callbackEntry[T any] struct {
	id uint64
	fn T
}

func (c *Callbacks[T]) load() []callbackEntry[T] {
	if c == nil {
		return nil
	}
	if p := c.snap.Load(); p != nil {
		return *p
	}
	return nil
}

// Len returns the number of registered callbacks.
func (c *Callbacks[T]) Len() int { return len(c.load()) }

// Add registers the callback and returns a function that unregisters it.
// The returned function is idempotent.
func (c *Callbacks[T]) Add(fn T) (remove func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	next := append(slices.Clone(c.load()), callbackEntry[T]{id, fn})
	c.snap.Store(&next)
	c.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { c.remove(id) }) }
}

func (c *Callbacks[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.load()
	i := slices.IndexFunc(cur, func(e callbackEntry[T]) bool { return e.id == id })
	if i < 0 {
		return
	}
	next := slices.Delete(slices.Clone(cur), i, i+1)
	c.snap.Store(&next)
}

// All iterates over the callbacks registered at the moment of the call.
func (c *Callbacks[T]) All() iter.Seq[T] {
	snap := c.load()
	return func(yield func(T) bool) {
		for _, e := range snap {
			if !yield(e.fn) {
				return
			}
		}
	}
}
