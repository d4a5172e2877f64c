package liveness

import (
	"context"
	"sync/atomic"
	"time"
)

// Service is anything whose liveness can be asked for.
type Service interface {
	IsAlive(ctx context.Context) bool
}

type Prober interface {
	Watch(svc Service)
	IsAlive() bool
}

// Probe polls a watched service and caches the last answer, so health
// endpoints never block on the service itself.
type Probe struct {
	timeout time.Duration
	alive   atomic.Bool
}

func NewProbe(timeout time.Duration) *Probe {
	return &Probe{timeout: timeout}
}

// Watch starts polling svc at half the probe timeout.
func (p *Probe) Watch(svc Service) {
	go func() {
		interval := p.timeout / 2
		if interval <= 0 {
			interval = time.Second
		}
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
			p.alive.Store(svc.IsAlive(ctx))
			cancel()
		}
	}()
}

func (p *Probe) IsAlive() bool { return p.alive.Load() }
