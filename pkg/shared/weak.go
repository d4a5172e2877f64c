package shared

// Weak is the non-owning observer: it keeps the control block alive, not the
// object, and yields access only through Lock. The stored pointer is kept
// solely so a successful promotion can rebuild the strong handle; it is never
// exposed directly.
type Weak[T any] struct {
	ptr *T
	cb  *control
}

// Weak derives an observer from a strong handle.
func (s *Shared[T]) Weak() *Weak[T] {
	if s == nil || s.cb == nil {
		return &Weak[T]{}
	}
	s.cb.incWeak()
	return &Weak[T]{ptr: s.ptr, cb: s.cb}
}

// Lock promotes the observer into a strong handle, or returns the null handle
// if the object has already been destroyed. The liveness check and the strong
// increment form one step of the sequential protocol.
func (w *Weak[T]) Lock() *Shared[T] {
	if w == nil || w.cb == nil || w.cb.useCount() == 0 {
		return &Shared[T]{}
	}
	return fromPair(w.cb, w.ptr)
}

func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.cb == nil {
		return &Weak[T]{}
	}
	w.cb.incWeak()
	return &Weak[T]{ptr: w.ptr, cb: w.cb}
}

// Move transfers the observation into a fresh handle and leaves the receiver
// null. No counts change.
func (w *Weak[T]) Move() *Weak[T] {
	if w == nil {
		return &Weak[T]{}
	}
	moved := &Weak[T]{ptr: w.ptr, cb: w.cb}
	w.ptr, w.cb = nil, nil
	return moved
}

func (w *Weak[T]) Swap(other *Weak[T]) {
	w.ptr, other.ptr = other.ptr, w.ptr
	w.cb, other.cb = other.cb, w.cb
}

// Assign mirrors Shared.Assign on the weak count only.
func (w *Weak[T]) Assign(other *Weak[T]) {
	tmp := other.Clone()
	w.Swap(tmp)
	tmp.Release()
}

func (w *Weak[T]) AssignMove(other *Weak[T]) {
	tmp := other.Move()
	w.Swap(tmp)
	tmp.Release()
}

// AssignShared rebinds the observer to a strong handle's target.
func (w *Weak[T]) AssignShared(s *Shared[T]) {
	tmp := s.Weak()
	w.Swap(tmp)
	tmp.Release()
}

// Release drops the observation, freeing the control block if this was its
// last weak unit. Safe on the null handle.
func (w *Weak[T]) Release() {
	if w == nil {
		return
	}
	if w.cb != nil {
		w.cb.decWeak()
	}
	w.ptr, w.cb = nil, nil
}
