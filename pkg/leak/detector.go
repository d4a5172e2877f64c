package leak

import (
	"sync"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/ctime"
	"github.com/Borislavv/shared-pointer/pkg/shared"
	"github.com/rs/zerolog/log"
)

// Detector is an opt-in shared.Tracker recording every live control block
// with its managed type and creation time. Anything still registered when a
// report runs is a candidate leak: a handle whose matching release never
// happened.
//
// The detector locks internally so reports may run from any goroutine even
// though the handles themselves are single-goroutine.
type Detector struct {
	mu   sync.Mutex
	live map[*shared.BlockInfo]time.Time
}

// Leak describes one control block still alive at report time.
type Leak struct {
	TypeName string
	Age      time.Duration
}

func NewDetector() *Detector {
	return &Detector{live: make(map[*shared.BlockInfo]time.Time)}
}

// Install registers the detector as the process-wide tracker and returns it.
func Install() *Detector {
	d := NewDetector()
	shared.SetTracker(d)
	return d
}

func (d *Detector) BlockMade(info *shared.BlockInfo) {
	d.mu.Lock()
	d.live[info] = ctime.Now()
	d.mu.Unlock()
}

func (d *Detector) BlockFreed(info *shared.BlockInfo) {
	d.mu.Lock()
	delete(d.live, info)
	d.mu.Unlock()
}

// Live reports the number of currently tracked control blocks.
func (d *Detector) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// Report snapshots the blocks still alive right now.
func (d *Detector) Report() []Leak {
	d.mu.Lock()
	defer d.mu.Unlock()
	leaks := make([]Leak, 0, len(d.live))
	for info, madeAt := range d.live {
		leaks = append(leaks, Leak{TypeName: info.TypeName, Age: ctime.Since(madeAt)})
	}
	return leaks
}

// LogLeaks writes one warning per live block and reports whether any existed.
func (d *Detector) LogLeaks() bool {
	leaks := d.Report()
	for _, l := range leaks {
		log.Warn().Msgf("[leak] %s block alive for %s without a matching release", l.TypeName, l.Age)
	}
	return len(leaks) > 0
}

// TestingT is the slice of *testing.T the detector needs.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// ExpectClean fails the test if any tracked block is still alive.
func (d *Detector) ExpectClean(t TestingT) {
	t.Helper()
	for _, l := range d.Report() {
		t.Errorf("leaked %s control block (age %s)", l.TypeName, l.Age)
	}
}
