// Package shared implements reference-counted shared ownership over heap
// objects: Shared[T] is the owning handle (many owners, one destruction,
// exactly when the last owner lets go), Weak[T] the non-owning observer that
// can check liveness and promote itself back into an owner while the object
// is still alive.
//
// Ownership discipline: every handle holding a non-null control-block
// reference performs exactly one matching release for the reference it was
// built with. Handles over one control block belong to a single goroutine;
// the counters are deliberately plain (the package trades cross-goroutine
// sharing for zero synchronization cost).
package shared

import "github.com/Borislavv/shared-pointer/pkg/alloc"

// Shared is the strong handle: a raw pointer for O(1) access plus a reference
// to the control block carrying the counts. The zero value is the null
// handle; so is a handle after Move or Reset.
type Shared[T any] struct {
	ptr *T
	cb  *control
}

// NewShared takes ownership of ptr, invoking del on it once the last strong
// handle is gone. del may be nil, in which case the object is simply dropped
// for the garbage collector to reclaim.
func NewShared[T any](ptr *T, del func(*T)) *Shared[T] {
	s, err := NewSharedIn(alloc.Heap, ptr, del)
	if err != nil {
		panic(err) // the heap allocator cannot refuse
	}
	return s
}

// NewSharedIn is NewShared against an explicit allocator. If the allocator
// refuses the control block, del runs exactly once on ptr before the error
// propagates, and no handle comes into existence.
func NewSharedIn[T any](a alloc.Allocator, ptr *T, del func(*T)) (*Shared[T], error) {
	cb, err := newPtrBlock(a, ptr, del)
	if err != nil {
		return nil, err
	}
	return &Shared[T]{ptr: ptr, cb: cb}, nil
}

// Make constructs value inside a fresh inline-owning control block: one
// allocation covers both the object and its counters. This is the preferred
// construction path.
func Make[T any](value T) *Shared[T] {
	s, err := MakeIn(alloc.Heap, value)
	if err != nil {
		panic(err)
	}
	return s
}

// MakeWith is Make for values that must be built in their final place: init
// receives a pointer to the zero value and may return a dispose hook to run
// when the object is destroyed.
func MakeWith[T any](init func(*T) (dispose func())) *Shared[T] {
	s, err := MakeWithIn(alloc.Heap, init)
	if err != nil {
		panic(err)
	}
	return s
}

func MakeIn[T any](a alloc.Allocator, value T) (*Shared[T], error) {
	return MakeWithIn(a, func(v *T) func() {
		*v = value
		return nil
	})
}

func MakeWithIn[T any](a alloc.Allocator, init func(*T) (dispose func())) (*Shared[T], error) {
	cb, ptr, err := newObjBlock(a, init)
	if err != nil {
		return nil, err
	}
	return &Shared[T]{ptr: ptr, cb: cb}, nil
}

// Alias shares src's ownership while exposing ptr, which usually addresses a
// sub-object of src's target. The whole object stays alive for as long as the
// aliased handle does.
func Alias[T, U any](src *Shared[U], ptr *T) *Shared[T] {
	if src == nil || src.cb == nil {
		return &Shared[T]{ptr: ptr}
	}
	src.cb.incStrong()
	return &Shared[T]{ptr: ptr, cb: src.cb}
}

// Cast views src's target through conv, typically an embedded-field upcast.
// It is the aliasing constructor applied to src's own pointer.
func Cast[U, T any](src *Shared[U], conv func(*U) *T) *Shared[T] {
	if src == nil || src.Get() == nil {
		return &Shared[T]{}
	}
	return Alias(src, conv(src.Get()))
}

// fromPair is the internal pair constructor shared with weak promotion.
func fromPair[T any](cb *control, ptr *T) *Shared[T] {
	if cb != nil {
		cb.incStrong()
	}
	return &Shared[T]{ptr: ptr, cb: cb}
}

// Get returns the exposed raw pointer, nil for the null handle. Callers must
// check for nil before dereferencing; the handle does not.
func (s *Shared[T]) Get() *T {
	if s == nil {
		return nil
	}
	return s.ptr
}

func (s *Shared[T]) IsNil() bool { return s.Get() == nil }

// UseCount reports the number of live strong handles over this handle's
// control block, 0 for the null handle. Side-effect free.
func (s *Shared[T]) UseCount() int64 {
	if s == nil || s.cb == nil {
		return 0
	}
	return s.cb.useCount()
}

// Clone returns a new strong handle over the same pair. Never allocates.
func (s *Shared[T]) Clone() *Shared[T] {
	if s == nil {
		return &Shared[T]{}
	}
	return fromPair(s.cb, s.ptr)
}

// Move transfers ownership into a fresh handle and leaves the receiver null.
// No counts change.
func (s *Shared[T]) Move() *Shared[T] {
	if s == nil {
		return &Shared[T]{}
	}
	moved := &Shared[T]{ptr: s.ptr, cb: s.cb}
	s.ptr, s.cb = nil, nil
	return moved
}

// Swap exchanges the pairs of two handles without touching any counts.
func (s *Shared[T]) Swap(other *Shared[T]) {
	s.ptr, other.ptr = other.ptr, s.ptr
	s.cb, other.cb = other.cb, s.cb
}

// Assign replaces the receiver's target with other's via
// construct-temporary-then-swap: the temporary's release drops whatever the
// receiver held, and self-assignment needs no special casing.
func (s *Shared[T]) Assign(other *Shared[T]) {
	tmp := other.Clone()
	s.Swap(tmp)
	tmp.Release()
}

// AssignMove steals other's target, leaving other null.
func (s *Shared[T]) AssignMove(other *Shared[T]) {
	tmp := other.Move()
	s.Swap(tmp)
	tmp.Release()
}

// Reset detaches the receiver, destroying the managed object if this was the
// last strong handle. Safe on the null handle.
func (s *Shared[T]) Reset() {
	if s == nil {
		return
	}
	if s.cb != nil {
		s.cb.decStrong()
	}
	s.ptr, s.cb = nil, nil
}

// ResetTo rebinds the receiver to a freshly owned pointer, releasing the old
// association.
func (s *Shared[T]) ResetTo(ptr *T, del func(*T)) {
	s.AssignMove(NewShared(ptr, del))
}

// ResetToIn is ResetTo against an explicit allocator. On refusal the old
// association is left intact (del has already consumed ptr).
func (s *Shared[T]) ResetToIn(a alloc.Allocator, ptr *T, del func(*T)) error {
	replacement, err := NewSharedIn(a, ptr, del)
	if err != nil {
		return err
	}
	s.AssignMove(replacement)
	return nil
}

// Release is the handle's destructor, identical to Reset; the name reads
// better under defer.
func (s *Shared[T]) Release() { s.Reset() }

// Equal is identity comparison over the exposed pointers; two null handles
// are equal.
func (s *Shared[T]) Equal(other *Shared[T]) bool { return s.Get() == other.Get() }
