package shared

import (
	"reflect"
	"unsafe"

	"github.com/Borislavv/shared-pointer/pkg/alloc"
)

// control is the out-of-line record every handle to one managed object points
// at. weak is a composite count: each strong owner is also one weak unit, so
// the block stays alive while either owners or observers remain, while the
// object itself dies with the last owner.
//
// NOTE: strong <= weak at all times; the object is alive iff strong > 0,
// the block iff weak > 0.
type control struct {
	strong int64
	weak   int64

	// destroy tears down the managed object. Set by the concrete block shape,
	// runs exactly once, on the strong count's transition to zero.
	destroy func()

	// free returns the block's accounted weight to its allocator. Runs exactly
	// once, on the weak count's transition to zero, never before destroy.
	free func()

	// info is populated only while a Tracker is installed.
	info *BlockInfo
}

func (c *control) useCount() int64 { return c.strong }

func (c *control) incStrong() {
	c.strong++
	liveStrong.Add(1)
	c.incWeak()
}

func (c *control) decStrong() {
	if c.strong == 0 {
		panic("shared: strong count underflow, handle released twice")
	}
	c.strong--
	liveStrong.Add(-1)
	if c.strong == 0 {
		c.destroy()
		objectsDestroyed.Add(1)
	}
	c.decWeak()
}

func (c *control) incWeak() {
	c.weak++
	liveWeak.Add(1)
}

func (c *control) decWeak() {
	if c.weak == 0 {
		panic("shared: weak count underflow, handle released twice")
	}
	c.weak--
	liveWeak.Add(-1)
	if c.weak == 0 {
		c.free()
		c.unregister()
	}
}

var controlWeight = int64(unsafe.Sizeof(control{}))

// newPtrBlock wires the pointer-owning shape: a control block around a
// caller-owned pointer and its deleter, holding the first strong reference.
// If the allocator refuses, del runs on ptr so the caller's object is not
// leaked, and no block comes into existence.
func newPtrBlock[T any](a alloc.Allocator, ptr *T, del func(*T)) (*control, error) {
	weight := controlWeight + int64(unsafe.Sizeof(uintptr(0)))
	if err := a.Alloc(weight); err != nil {
		if del != nil {
			del(ptr)
		}
		return nil, err
	}
	cb := &control{}
	owned := ptr
	cb.destroy = func() {
		if del != nil {
			del(owned)
		}
		owned = nil
	}
	cb.free = func() { a.Free(weight) }
	cb.register(typeNameOf[T])
	cb.incStrong()
	return cb, nil
}

// objBlock is the inline-owning shape: the managed value lives inside the
// block itself, so the factory pays for a single allocation covering both
// the object and its counters.
type objBlock[T any] struct {
	control
	value T
}

// newObjBlock constructs a value in place inside a fresh inline-owning block.
// init receives a pointer to the zero value and may return a dispose hook to
// run at destruction time.
func newObjBlock[T any](a alloc.Allocator, init func(*T) func()) (*control, *T, error) {
	weight := controlWeight + sizeOf[T]()
	if err := a.Alloc(weight); err != nil {
		return nil, nil, err
	}
	b := &objBlock[T]{}
	dispose := init(&b.value)
	b.destroy = func() {
		if dispose != nil {
			dispose()
		}
		var zero T
		b.value = zero
	}
	b.free = func() { a.Free(weight) }
	b.register(typeNameOf[T])
	b.incStrong()
	return &b.control, &b.value, nil
}

func sizeOf[T any]() int64 {
	var v *T
	return int64(reflect.TypeOf(v).Elem().Size())
}

func typeNameOf[T any]() string {
	var v *T
	return reflect.TypeOf(v).Elem().String()
}
