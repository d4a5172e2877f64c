package gc

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/rs/zerolog/log"
)

// Run periodically forces a GC pass and returns freed pages to the OS.
// A long-lived process whose heap has reached steady state only triggers a
// collection after GOGC% growth, which a stable handle table rarely produces;
// the tickers keep RSS predictable instead.
func Run(ctx context.Context, cfg *config.Config) {
	go func() {
		gcTicker := time.NewTicker(cfg.Demo.ForceGC.GCInterval.Std())
		defer gcTicker.Stop()

		freeOsMemTicker := time.NewTicker(cfg.Demo.ForceGC.FreeOsMemInterval.Std())
		defer freeOsMemTicker.Stop()

		log.Info().Msgf(
			"[force-GC] running with gcInterval=%s, freeOsMemInterval=%s",
			cfg.Demo.ForceGC.GCInterval, cfg.Demo.ForceGC.FreeOsMemInterval,
		)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("[force-GC] stopped")
				return

			case <-gcTicker.C:
				var mem runtime.MemStats
				runtime.ReadMemStats(&mem)

				runtime.GC()

				log.Info().Msgf(
					"[force-GC] forced GC pass (heap alloc: %s, last pause: %s)",
					fmtBytes(mem.Alloc), lastGCPause(mem.PauseNs),
				)

			case <-freeOsMemTicker.C:
				debug.FreeOSMemory() // madvise(DONTNEED) under the hood
				log.Info().Msg("[force-GC] flushed freed memory to OS")
			}
		}
	}()
}

// fmtBytes formats a byte count to a human-readable string.
func fmtBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func lastGCPause(pauses [256]uint64) time.Duration {
	for i := 255; i >= 0; i-- {
		if pauses[i] > 0 {
			return time.Duration(pauses[i])
		}
	}
	return 0
}
