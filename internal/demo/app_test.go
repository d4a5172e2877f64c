package demo

import (
	"context"
	"testing"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/alloc"
	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/Borislavv/shared-pointer/pkg/shared"
	"github.com/Borislavv/shared-pointer/pkg/shutdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkloadReleasesEverything(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.Workload.Objects = 32
	cfg.Demo.Workload.PayloadBytes = 16
	cfg.Demo.Workload.RatePerSec = 0

	budget := alloc.NewBudget(1 << 12) // small enough to force refusals
	w := newWorkload(cfg, budget)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.run(ctx)

	assert.Positive(t, w.made)
	assert.Zero(t, budget.Used()) // drain released every handle and observer
}

func TestAppStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Demo.Api.Enabled = false
	cfg.Demo.Workload.Objects = 16
	cfg.Demo.LeakCheck.ReportInterval = config.Duration(10 * time.Millisecond)
	cfg.Demo.Budget.Bytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	app := NewApp(ctx, cfg)

	g := shutdown.NewGraceful(ctx, cancel)
	g.SetGracefulTimeout(2 * time.Second)
	g.Add(1)
	go app.Start(g)

	time.Sleep(100 * time.Millisecond)
	cancel()
	require.NoError(t, g.ListenCancelAndAwait())
	assert.Zero(t, shared.ReadStats().LiveBlocks)
}
