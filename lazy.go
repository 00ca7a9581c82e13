package semmatch

import (
	"sync"
	"sync/atomic"
)

// Lazy is a value computed at most once, on first use. Force is safe to call
// from multiple goroutines; the first caller runs the computation and every
// caller observes the same result.
type Lazy[T any] struct {
	once    sync.Once
	compute func() T
	value   T
	done    atomic.Bool
}

// NewLazy returns a Lazy that runs compute on first Force.
func NewLazy[T any](compute func() T) *Lazy[T] {
	return &Lazy[T]{compute: compute}
}

// Ready returns a Lazy that already holds v.
func Ready[T any](v T) *Lazy[T] {
	l := &Lazy[T]{value: v}
	l.once.Do(func() {})
	l.done.Store(true)
	return l
}

// Force returns the value, computing it if needed.
func (l *Lazy[T]) Force() T {
	l.once.Do(func() {
		if l.compute != nil {
			l.value = l.compute()
		}
		// drop the closure so captured parse state can be collected
		l.compute = nil
		l.done.Store(true)
	})
	return l.value
}

// Forced reports whether the value has been computed.
func (l *Lazy[T]) Forced() bool {
	return l.done.Load()
}
