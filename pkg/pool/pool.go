package pool

import "sync"

// Batch is a generic object pool over sync.Pool with an optional reset hook
// applied on Put, so recycled objects always come back clean.
//
// The main goal is to:
// - Minimize allocations by reusing objects.
// - Keep the Get/Put API of sync.Pool while hiding the type assertions.
type Batch[T any] struct {
	pool  *sync.Pool
	reset func(T)
}

// New creates a Batch pool.
// - allocFn constructs a fresh T when the pool is empty.
// - resetFn (optional) wipes an object before it is shelved for reuse.
func New[T any](allocFn func() T, resetFn func(T)) *Batch[T] {
	return &Batch[T]{
		pool: &sync.Pool{
			New: func() any { return allocFn() },
		},
		reset: resetFn,
	}
}

// Get retrieves an object from the pool, allocating if necessary.
// Never returns the zero T (unless allocFn does).
func (bp *Batch[T]) Get() T {
	return bp.pool.Get().(T)
}

// Put returns an object to the pool for future reuse.
func (bp *Batch[T]) Put(v T) {
	if bp.reset != nil {
		bp.reset(v)
	}
	bp.pool.Put(v)
}

// Deleter adapts a pool into a shared-handle deleter: instead of dropping the
// managed object for the garbage collector, the last owner recycles it.
func Deleter[T any](bp *Batch[*T]) func(*T) {
	return func(v *T) { bp.Put(v) }
}
