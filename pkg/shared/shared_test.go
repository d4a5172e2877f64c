package shared

import (
	"testing"

	"github.com/Borislavv/shared-pointer/pkg/alloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	id   int
	data []byte
}

func TestExampleScenario(t *testing.T) {
	destroyed := 0
	a := MakeWith(func(v *int) func() {
		*v = 42
		return func() { destroyed++ }
	})
	require.Equal(t, int64(1), a.UseCount())
	require.Equal(t, 42, *a.Get())

	b := a.Clone()
	require.Equal(t, int64(2), a.UseCount())
	require.Equal(t, int64(2), b.UseCount())

	c := b.Move()
	assert.True(t, b.IsNil())
	require.Equal(t, int64(2), a.UseCount())
	require.Equal(t, int64(2), c.UseCount())

	w := a.Weak()
	a.Reset()
	require.Equal(t, 0, destroyed)
	c.Reset()
	require.Equal(t, 1, destroyed)

	locked := w.Lock()
	assert.True(t, locked.IsNil())
	w.Release()
	require.Equal(t, 1, destroyed)
}

func TestDeleterRunsExactlyOnce(t *testing.T) {
	deleted := 0
	s := NewShared(&payload{id: 1}, func(*payload) { deleted++ })

	clones := make([]*Shared[payload], 0, 8)
	for i := 0; i < 8; i++ {
		clones = append(clones, s.Clone())
	}
	require.Equal(t, int64(9), s.UseCount())

	// release in mixed order, the original first
	s.Release()
	for i := len(clones) - 1; i >= 0; i-- {
		require.Equal(t, 0, deleted)
		clones[i].Release()
		clones[i].Release() // idempotent, must not double-release
	}
	require.Equal(t, 1, deleted)
}

func TestUseCountAccuracy(t *testing.T) {
	s := Make(payload{id: 7})
	require.Equal(t, int64(1), s.UseCount())

	c := s.Clone()
	require.Equal(t, int64(2), s.UseCount())

	m := c.Move()
	require.Equal(t, int64(2), s.UseCount()) // move is count-neutral
	require.Equal(t, int64(0), c.UseCount())

	m.Reset()
	require.Equal(t, int64(1), s.UseCount())
	s.Reset()
	require.Equal(t, int64(0), s.UseCount())
}

func TestNullHandle(t *testing.T) {
	var s Shared[payload]
	assert.Nil(t, s.Get())
	assert.True(t, s.IsNil())
	assert.Equal(t, int64(0), s.UseCount())
	s.Reset() // no-op on the null handle

	c := s.Clone()
	assert.True(t, c.IsNil())

	var other Shared[payload]
	assert.True(t, s.Equal(&other))
}

func TestEqualityIsIdentity(t *testing.T) {
	a := Make(payload{id: 1})
	defer a.Release()
	b := a.Clone()
	defer b.Release()
	c := Make(payload{id: 1})
	defer c.Release()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c)) // same contents, different objects
}

func TestSwapExchangesWithoutCountChanges(t *testing.T) {
	a := Make(1)
	b := Make(2)
	ap, bp := a.Get(), b.Get()

	a.Swap(b)
	assert.Same(t, bp, a.Get())
	assert.Same(t, ap, b.Get())
	require.Equal(t, int64(1), a.UseCount())
	require.Equal(t, int64(1), b.UseCount())

	a.Release()
	b.Release()
}

func TestAssignReleasesOldTarget(t *testing.T) {
	oldGone, newGone := 0, 0
	a := NewShared(&payload{id: 1}, func(*payload) { oldGone++ })
	b := NewShared(&payload{id: 2}, func(*payload) { newGone++ })

	a.Assign(b)
	require.Equal(t, 1, oldGone)
	require.Equal(t, 0, newGone)
	require.Equal(t, int64(2), b.UseCount())
	assert.True(t, a.Equal(b))

	a.Release()
	b.Release()
	require.Equal(t, 1, newGone)
}

func TestAssignMoveStealsTarget(t *testing.T) {
	gone := 0
	a := &Shared[payload]{}
	b := NewShared(&payload{id: 2}, func(*payload) { gone++ })

	a.AssignMove(b)
	assert.True(t, b.IsNil())
	require.Equal(t, int64(1), a.UseCount())
	require.Equal(t, 0, gone)

	a.Release()
	require.Equal(t, 1, gone)
}

func TestSelfAssignmentIsSafe(t *testing.T) {
	destroyed := 0
	s := MakeWith(func(v *payload) func() {
		v.id = 3
		return func() { destroyed++ }
	})
	p := s.Get()

	s.Assign(s)
	assert.Same(t, p, s.Get())
	require.Equal(t, int64(1), s.UseCount())
	require.Equal(t, 0, destroyed)

	s.AssignMove(s)
	assert.Same(t, p, s.Get())
	require.Equal(t, int64(1), s.UseCount())
	require.Equal(t, 0, destroyed)

	s.Release()
	require.Equal(t, 1, destroyed)
}

type wholeObject struct {
	header subObject
	body   []byte
}

type subObject struct{ n int }

func TestAliasKeepsWholeAlive(t *testing.T) {
	disposed := false
	w := MakeWith(func(v *wholeObject) func() {
		v.header.n = 7
		return func() { disposed = true }
	})

	view := Alias(w, &w.Get().header)
	require.Equal(t, int64(2), w.UseCount())

	w.Release()
	require.False(t, disposed) // the view still owns the whole object
	require.Equal(t, 7, view.Get().n)

	view.Release()
	require.True(t, disposed)
}

func TestCastViewsThroughConversion(t *testing.T) {
	w := Make(wholeObject{header: subObject{n: 11}})
	h := Cast(w, func(o *wholeObject) *subObject { return &o.header })

	require.Equal(t, int64(2), w.UseCount())
	require.Equal(t, 11, h.Get().n)

	var null Shared[wholeObject]
	nh := Cast(&null, func(o *wholeObject) *subObject { return &o.header })
	assert.True(t, nh.IsNil())

	h.Release()
	w.Release()
}

func TestResetToReplacesOwnership(t *testing.T) {
	first, second := 0, 0
	s := NewShared(&payload{id: 1}, func(*payload) { first++ })

	s.ResetTo(&payload{id: 2}, func(*payload) { second++ })
	require.Equal(t, 1, first)
	require.Equal(t, 0, second)
	require.Equal(t, 2, s.Get().id)

	s.Release()
	require.Equal(t, 1, second)
}

func TestAllocationFailureInvokesDeleterOnce(t *testing.T) {
	budget := alloc.NewBudget(1) // nothing fits
	deleted := 0

	s, err := NewSharedIn(budget, &payload{id: 1}, func(*payload) { deleted++ })
	require.ErrorIs(t, err, alloc.ErrBudgetExceeded)
	assert.Nil(t, s)
	require.Equal(t, 1, deleted)
	assert.Zero(t, budget.Used())
}

func TestResetToInFailureKeepsOldTarget(t *testing.T) {
	gone := 0
	s := NewShared(&payload{id: 1}, func(*payload) { gone++ })
	p := s.Get()

	budget := alloc.NewBudget(1)
	replacementGone := 0
	err := s.ResetToIn(budget, &payload{id: 2}, func(*payload) { replacementGone++ })
	require.ErrorIs(t, err, alloc.ErrBudgetExceeded)

	// the replacement was consumed by its deleter, the old target survives
	require.Equal(t, 1, replacementGone)
	require.Equal(t, 0, gone)
	assert.Same(t, p, s.Get())

	s.Release()
	require.Equal(t, 1, gone)
}

func TestMakeInChargesAndRefundsBudget(t *testing.T) {
	budget := alloc.NewBudget(1 << 12)

	s, err := MakeIn(budget, payload{id: 5, data: []byte("abc")})
	require.NoError(t, err)
	assert.Positive(t, budget.Used())

	w := s.Weak()
	s.Release()
	assert.Positive(t, budget.Used()) // block survives for the observer

	w.Release()
	assert.Zero(t, budget.Used())
}

func TestCounterUnderflowPanics(t *testing.T) {
	s := Make(1)
	cb := s.cb
	s.Release()

	assert.Panics(t, func() { cb.decStrong() })
	assert.Panics(t, func() { cb.decWeak() })
}
