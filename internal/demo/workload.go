package demo

import (
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/alloc"
	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/Borislavv/shared-pointer/pkg/ctime"
	"github.com/Borislavv/shared-pointer/pkg/pool"
	"github.com/Borislavv/shared-pointer/pkg/shared"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// object is the managed payload the workload churns.
type object struct {
	id   int
	data []byte
}

// workload drives the whole handle surface from one goroutine, which is the
// ownership discipline the handles require: make (pooled deleter), clone,
// alias a sub-object, derive and promote weak observers, release.
type workload struct {
	cfg       *config.Config
	allocator alloc.Allocator
	limiter   *rate.Limiter
	objects   *pool.Batch[*object]
	buffers   *pool.SizedBytes
	table     []*shared.Shared[object]
	observers []*shared.Weak[object]
	rnd       *rand.Rand

	// heartbeat is read by the liveness probe from another goroutine.
	heartbeat atomic.Int64

	made, refused, promoted, expired uint64
}

func newWorkload(cfg *config.Config, allocator alloc.Allocator) *workload {
	w := &workload{
		cfg:       cfg,
		allocator: allocator,
		objects: pool.New(
			func() *object { return &object{data: make([]byte, 0, cfg.Demo.Workload.PayloadBytes)} },
			func(o *object) { o.id, o.data = 0, o.data[:0] },
		),
		buffers:   pool.NewSizedBytes(),
		table:     make([]*shared.Shared[object], cfg.Demo.Workload.Objects),
		observers: make([]*shared.Weak[object], cfg.Demo.Workload.Objects),
		rnd:       rand.New(rand.NewSource(42)),
	}
	if cfg.Demo.Workload.RatePerSec > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(cfg.Demo.Workload.RatePerSec), cfg.Demo.Workload.RatePerSec)
	}
	return w
}

// run churns handles until the context is cancelled, then releases everything
// it still holds.
func (w *workload) run(ctx context.Context) {
	defer w.drain()

	for i := 0; ; i++ {
		if ctx.Err() != nil {
			return
		}
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}
		w.step(i)
	}
}

// alive reports whether the loop made progress recently.
func (w *workload) alive() bool {
	last := w.heartbeat.Load()
	return last != 0 && ctime.UnixNano()-last < int64(5*time.Second)
}

func (w *workload) step(i int) {
	w.heartbeat.Store(ctime.UnixNano())
	slot := w.rnd.Intn(len(w.table))
	s := w.table[slot]

	if s == nil || s.IsNil() {
		w.fill(slot, i)
		return
	}

	switch w.rnd.Intn(5) {
	case 0: // clone over a neighbour
		neighbour := w.rnd.Intn(len(w.table))
		if w.table[neighbour] == nil {
			w.table[neighbour] = &shared.Shared[object]{}
		}
		w.table[neighbour].Assign(s)
	case 1: // observe
		if old := w.observers[slot]; old != nil {
			old.Release()
		}
		w.observers[slot] = s.Weak()
	case 2: // promote a random observer
		w.promote(w.rnd.Intn(len(w.observers)))
	case 3: // view a sub-object, whole object pinned while the view lives
		view := shared.Alias(s, &s.Get().id)
		_ = *view.Get()
		view.Release()
	default:
		s.Release()
	}
}

// fill creates a fresh handle in slot, alternating the two block shapes:
// pointer-owning over a pooled object, and inline-owning with a sized buffer
// returned to its class by the dispose hook.
func (w *workload) fill(slot, id int) {
	var (
		s   *shared.Shared[object]
		err error
	)
	size := w.cfg.Demo.Workload.PayloadBytes
	if id%2 == 0 {
		obj := w.objects.Get()
		obj.id = id
		obj.data = append(obj.data, make([]byte, size)...)
		s, err = shared.NewSharedIn(w.allocator, obj, pool.Deleter(w.objects))
	} else {
		s, err = shared.MakeWithIn(w.allocator, func(v *object) func() {
			buf := w.buffers.Get(size)
			*buf = append(*buf, make([]byte, size)...)
			v.id = id
			v.data = *buf
			return func() { w.buffers.Put(buf) }
		})
	}
	if err != nil {
		if !errors.Is(err, alloc.ErrBudgetExceeded) {
			log.Error().Err(err).Msg("[workload] unexpected allocator refusal")
			return
		}
		// pointer path: the deleter already recycled obj; inline path: the
		// init never ran. Either way make room for the next pass.
		w.refused++
		w.evictOne()
		return
	}
	w.made++
	if old := w.table[slot]; old != nil {
		old.Release()
	}
	w.table[slot] = s
}

func (w *workload) promote(slot int) {
	obs := w.observers[slot]
	if obs == nil {
		return
	}
	locked := obs.Lock()
	if locked.IsNil() {
		w.expired++
		obs.Release()
		w.observers[slot] = nil
		return
	}
	w.promoted++
	locked.Release()
}

func (w *workload) evictOne() {
	start := w.rnd.Intn(len(w.table))
	for i := 0; i < len(w.table); i++ {
		slot := (start + i) % len(w.table)
		if s := w.table[slot]; s != nil && !s.IsNil() {
			s.Release()
			return
		}
	}
}

func (w *workload) drain() {
	for _, s := range w.table {
		if s != nil {
			s.Release()
		}
	}
	for _, o := range w.observers {
		if o != nil {
			o.Release()
		}
	}
	log.Info().Msgf(
		"[workload] drained: made=%d refused=%d promoted=%d expired=%d",
		w.made, w.refused, w.promoted, w.expired,
	)
}
