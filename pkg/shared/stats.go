package shared

import "sync/atomic"

// Stats is a point-in-time snapshot of the process-wide handle tallies.
// The tallies themselves are atomic so observers (metrics, leak reports) may
// read them from any goroutine; the counting protocol of individual control
// blocks stays single-goroutine regardless.
type Stats struct {
	LiveBlocks       int64
	LiveStrong       int64
	LiveWeak         int64 // composite units: every strong owner counts here too
	BlocksMade       uint64
	BlocksFreed      uint64
	ObjectsDestroyed uint64
}

var (
	liveBlocks       atomic.Int64
	liveStrong       atomic.Int64
	liveWeak         atomic.Int64
	blocksMade       atomic.Uint64
	blocksFreed      atomic.Uint64
	objectsDestroyed atomic.Uint64
)

func ReadStats() Stats {
	return Stats{
		LiveBlocks:       liveBlocks.Load(),
		LiveStrong:       liveStrong.Load(),
		LiveWeak:         liveWeak.Load(),
		BlocksMade:       blocksMade.Load(),
		BlocksFreed:      blocksFreed.Load(),
		ObjectsDestroyed: objectsDestroyed.Load(),
	}
}

// BlockInfo identifies one live control block to an installed Tracker.
// The pointer itself is the block's identity.
type BlockInfo struct {
	TypeName string
}

// Tracker observes control-block lifecycles. Purely observational: it never
// takes part in the counting protocol.
type Tracker interface {
	BlockMade(info *BlockInfo)
	BlockFreed(info *BlockInfo)
}

var tracker Tracker

// SetTracker installs (or removes, with nil) the process-wide lifecycle
// tracker. Install it before any blocks are made; blocks created earlier are
// invisible to it.
func SetTracker(t Tracker) { tracker = t }

func (c *control) register(name func() string) {
	liveBlocks.Add(1)
	blocksMade.Add(1)
	if tracker != nil {
		c.info = &BlockInfo{TypeName: name()}
		tracker.BlockMade(c.info)
	}
}

func (c *control) unregister() {
	liveBlocks.Add(-1)
	blocksFreed.Add(1)
	if c.info != nil && tracker != nil {
		tracker.BlockFreed(c.info)
	}
}
