package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrGracefulTimeout = errors.New("shutdown: graceful timeout exceeded")

const defaultGracefulTimeout = 30 * time.Second

// Gracefuller is the slice long-running components see: register with Add
// before starting, call Done once fully stopped.
type Gracefuller interface {
	Add(delta int)
	Done()
}

// Graceful coordinates application teardown: it listens for OS stop signals
// or root-context cancellation, cancels the application, then awaits every
// registered component up to a configurable timeout.
type Graceful struct {
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewGraceful(ctx context.Context, cancel context.CancelFunc) *Graceful {
	return &Graceful{ctx: ctx, cancel: cancel, timeout: defaultGracefulTimeout}
}

func (g *Graceful) SetGracefulTimeout(timeout time.Duration) { g.timeout = timeout }

func (g *Graceful) Add(delta int) { g.wg.Add(delta) }

func (g *Graceful) Done() { g.wg.Done() }

// ListenCancelAndAwait blocks until a stop signal arrives or the root context
// is cancelled, then cancels the application and waits for every registered
// component to call Done. Returns ErrGracefulTimeout if they take too long.
func (g *Graceful) ListenCancelAndAwait() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		log.Info().Msgf("[shutdown] received %v, stopping", s)
	case <-g.ctx.Done():
	}
	g.cancel()

	awaited := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(awaited)
	}()

	select {
	case <-awaited:
		return nil
	case <-time.After(g.timeout):
		return ErrGracefulTimeout
	}
}
