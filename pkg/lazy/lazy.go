// Package lazy provides a compute-once cell for values that are expensive to
// produce and may never be needed.
package lazy

import (
	"sync"
	"sync/atomic"
)

// Value defers a computation until the first call to Get and memoizes its
// result, including an error. The producer runs at most once no matter how
// many goroutines call Get.
//
// The zero Value is not usable; construct one with New.
type Value[T any] struct {
	once      sync.Once
	produce   func() (T, error)
	evaluated atomic.Bool

	val T
	err error
}

// New returns a Value whose result is produced by fn on first access.
func New[T any](fn func() (T, error)) *Value[T] {
	return &Value[T]{produce: fn}
}

// Get runs the producer on the first call and returns the memoized result on
// every call after that.
func (v *Value[T]) Get() (T, error) {
	v.once.Do(func() {
		v.val, v.err = v.produce()
		v.produce = nil
		v.evaluated.Store(true)
	})
	return v.val, v.err
}

// Peek returns the memoized result without triggering the producer. ok is
// false if Get has not completed yet.
func (v *Value[T]) Peek() (val T, err error, ok bool) {
	if !v.evaluated.Load() {
		return val, nil, false
	}
	return v.val, v.err, true
}
