package demo

import (
	"context"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/alloc"
	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/Borislavv/shared-pointer/pkg/ctime"
	"github.com/Borislavv/shared-pointer/pkg/k8s/probe/liveness"
	"github.com/Borislavv/shared-pointer/pkg/leak"
	"github.com/Borislavv/shared-pointer/pkg/prometheus/metrics"
	"github.com/Borislavv/shared-pointer/pkg/server"
	"github.com/Borislavv/shared-pointer/pkg/shared"
	"github.com/Borislavv/shared-pointer/pkg/shutdown"
	"github.com/rs/zerolog/log"
)

// App defines the demo application lifecycle interface.
type App interface {
	Start(gc shutdown.Gracefuller)
}

// Demo wires the handle workload to its ops surface: metrics server, leak
// detector reports and the allocator chosen by config.
type Demo struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Config
	server   *server.HTTP
	probe    *liveness.Probe
	detector *leak.Detector
	workload *workload
}

// NewApp builds the Demo app, wiring allocator, detector, metrics and server.
func NewApp(ctx context.Context, cfg *config.Config) *Demo {
	ctx, cancel := context.WithCancel(ctx)

	var allocator alloc.Allocator = alloc.Heap
	if cfg.Demo.Budget.Bytes > 0 {
		allocator = alloc.NewBudget(cfg.Demo.Budget.Bytes)
	}

	var detector *leak.Detector
	if cfg.Demo.LeakCheck.Enabled {
		detector = leak.Install()
	}

	metrics.Register()

	d := &Demo{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		detector: detector,
		workload: newWorkload(cfg, allocator),
	}
	if cfg.Demo.Api.Enabled {
		d.probe = liveness.NewProbe(time.Second)
		d.server = server.New(ctx, cfg, d.probe)
	}
	return d
}

// IsAlive satisfies liveness.Service: the app is alive while the workload
// keeps making progress.
func (d *Demo) IsAlive(context.Context) bool { return d.workload.alive() }

// Start runs the workload and ops surface until shutdown. The Gracefuller is
// expected to await the Done call issued once teardown completes.
func (d *Demo) Start(gc shutdown.Gracefuller) {
	defer func() {
		d.stop()
		gc.Done()
	}()

	log.Info().Msg("[app] starting shared-pointer demo")

	stopClock := ctime.Start(100 * time.Millisecond)
	defer stopClock()

	if d.server != nil {
		d.probe.Watch(d)
		go d.server.ListenAndServe()
	}
	if d.detector != nil {
		go d.reportLeaks()
	}

	d.workload.run(d.ctx) // blocks this goroutine until cancellation

	log.Info().Msg("[app] shared-pointer demo has been stopped")
}

// reportLeaks periodically logs blocks alive without a matching release and
// the process-wide tallies they correspond to.
func (d *Demo) reportLeaks() {
	t := time.NewTicker(d.cfg.Demo.LeakCheck.ReportInterval.Std())
	defer t.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-t.C:
			st := shared.ReadStats()
			log.Info().Msgf(
				"[leak-report] live: blocks=%d strong=%d weak=%d (made=%d freed=%d destroyed=%d)",
				st.LiveBlocks, st.LiveStrong, st.LiveWeak,
				st.BlocksMade, st.BlocksFreed, st.ObjectsDestroyed,
			)
			d.detector.LogLeaks()
		}
	}
}

// stop cancels the application context; the workload drains its table before
// returning, so a final clean report means every increment found its release.
func (d *Demo) stop() {
	log.Info().Msg("[app] stopping shared-pointer demo")
	d.cancel()
	if d.detector != nil {
		if leaked := d.detector.LogLeaks(); !leaked {
			log.Info().Msg("[app] all control blocks released")
		}
		shared.SetTracker(nil)
	}
}
