package metrics

import (
	"sync"

	"github.com/Borislavv/shared-pointer/pkg/shared"
	"github.com/VictoriaMetrics/metrics"
)

var registerOnce sync.Once

// Register exposes the shared-pointer runtime tallies as gauges in
// VictoriaMetrics' default set. Idempotent; every scrape samples
// shared.ReadStats, so the gauges are always current without any push path.
func Register() {
	registerOnce.Do(register)
}

func register() {
	metrics.NewGauge(`sharedptr_live_blocks`, func() float64 {
		return float64(shared.ReadStats().LiveBlocks)
	})
	metrics.NewGauge(`sharedptr_live_strong_refs`, func() float64 {
		return float64(shared.ReadStats().LiveStrong)
	})
	metrics.NewGauge(`sharedptr_live_weak_units`, func() float64 {
		return float64(shared.ReadStats().LiveWeak)
	})
	metrics.NewGauge(`sharedptr_blocks_made_total`, func() float64 {
		return float64(shared.ReadStats().BlocksMade)
	})
	metrics.NewGauge(`sharedptr_blocks_freed_total`, func() float64 {
		return float64(shared.ReadStats().BlocksFreed)
	})
	metrics.NewGauge(`sharedptr_objects_destroyed_total`, func() float64 {
		return float64(shared.ReadStats().ObjectsDestroyed)
	})
}
