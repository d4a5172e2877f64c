package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCfg = `
demo:
  workload:
    rate_per_sec: 5000
    objects: 64
    payload_bytes: 128
  api:
    enabled: true
    name: demo
    port: "9090"
  leak_check:
    enabled: true
    report_interval: 10s
  budget:
    bytes: 1048576
  force_gc:
    enabled: true
    gc_interval: 30s
`

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCfg), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Demo.Workload.RatePerSec)
	assert.Equal(t, 64, cfg.Demo.Workload.Objects)
	assert.Equal(t, 128, cfg.Demo.Workload.PayloadBytes)
	assert.Equal(t, "9090", cfg.Demo.Api.Port)
	assert.True(t, cfg.Demo.LeakCheck.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Demo.LeakCheck.ReportInterval.Std())
	assert.Equal(t, int64(1<<20), cfg.Demo.Budget.Bytes)
	assert.Equal(t, 30*time.Second, cfg.Demo.ForceGC.GCInterval.Std())
	assert.Equal(t, 5*time.Minute, cfg.Demo.ForceGC.FreeOsMemInterval.Std()) // defaulted
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("demo: {}\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.Demo.Workload.Objects)
	assert.Equal(t, 256, cfg.Demo.Workload.PayloadBytes)
	assert.Equal(t, "8020", cfg.Demo.Api.Port)
	assert.Zero(t, cfg.Demo.Budget.Bytes)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
