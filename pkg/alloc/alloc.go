package alloc

import (
	"errors"
	"fmt"
)

// ErrBudgetExceeded is returned when an allocator refuses to account a new
// control block. Constructors that receive it must tear down whatever they
// were given before propagating (see the shared package).
var ErrBudgetExceeded = errors.New("alloc: budget exceeded")

// Allocator accounts for control-block storage. Alloc is called once before
// a block comes to life, Free once after its last observer is gone; the
// shared package always pairs the two with the same weight.
type Allocator interface {
	Alloc(weight int64) error
	Free(weight int64)
}

// HeapAllocator is the default: plain Go heap allocation, which cannot refuse.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(int64) error { return nil }
func (HeapAllocator) Free(int64)        {}

// Heap is the shared stateless instance of HeapAllocator.
var Heap Allocator = HeapAllocator{}

// Budget caps the total accounted weight of live control blocks. Like the
// handles it serves, a Budget is owned by a single goroutine.
type Budget struct {
	capacity int64
	used     int64
}

func NewBudget(capacity int64) *Budget {
	return &Budget{capacity: capacity}
}

func (b *Budget) Alloc(weight int64) error {
	if b.used+weight > b.capacity {
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrBudgetExceeded, weight, b.used, b.capacity)
	}
	b.used += weight
	return nil
}

func (b *Budget) Free(weight int64) {
	b.used -= weight
	if b.used < 0 {
		panic("alloc: budget freed more than it allocated")
	}
}

// Used reports the accounted weight of currently live blocks.
func (b *Budget) Used() int64 { return b.used }

func (b *Budget) Capacity() int64 { return b.capacity }
