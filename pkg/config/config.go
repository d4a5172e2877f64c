package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes yaml scalars like "30s" as well as bare nanosecond
// integers (yaml.v3 has no native time.Duration support).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("config: bad duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: bad duration node: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

type Config struct {
	Demo Demo `yaml:"demo"`
}

type Demo struct {
	Workload  Workload  `yaml:"workload"`
	Api       Api       `yaml:"api"`
	LeakCheck LeakCheck `yaml:"leak_check"`
	Budget    Budget    `yaml:"budget"`
	ForceGC   ForceGC   `yaml:"force_gc"`
}

type Workload struct {
	// RatePerSec caps handle operations per second; 0 means unpaced.
	RatePerSec int `yaml:"rate_per_sec"`
	// Objects is the size of the live handle table the workload churns.
	Objects      int `yaml:"objects"`
	PayloadBytes int `yaml:"payload_bytes"`
}

type Api struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
	Port    string `yaml:"port"`
}

type LeakCheck struct {
	Enabled        bool     `yaml:"enabled"`
	ReportInterval Duration `yaml:"report_interval"`
}

type Budget struct {
	// Bytes caps accounted control-block weight; 0 disables the cap and the
	// plain heap allocator serves instead.
	Bytes int64 `yaml:"bytes"`
}

type ForceGC struct {
	Enabled           bool     `yaml:"enabled"`
	GCInterval        Duration `yaml:"gc_interval"`
	FreeOsMemInterval Duration `yaml:"free_os_mem_interval"`
}

// LoadConfig reads, parses and normalizes the yaml config at path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := &Config{}
	if err = yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.setUpDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setUpDefaults()
	cfg.Demo.Api.Enabled = true
	cfg.Demo.LeakCheck.Enabled = true
	cfg.Demo.ForceGC.Enabled = true
	return cfg
}

func (c *Config) setUpDefaults() {
	w := &c.Demo.Workload
	if w.RatePerSec < 0 {
		w.RatePerSec = 0
	}
	if w.Objects <= 0 {
		w.Objects = 1024
	}
	if w.PayloadBytes <= 0 {
		w.PayloadBytes = 256
	}

	api := &c.Demo.Api
	if api.Name == "" {
		api.Name = "shared-pointer-demo"
	}
	if api.Port == "" {
		api.Port = "8020"
	}

	if c.Demo.LeakCheck.ReportInterval <= 0 {
		c.Demo.LeakCheck.ReportInterval = Duration(30 * time.Second)
	}

	gc := &c.Demo.ForceGC
	if gc.GCInterval <= 0 {
		gc.GCInterval = Duration(time.Minute)
	}
	if gc.FreeOsMemInterval <= 0 {
		gc.FreeOsMemInterval = Duration(5 * time.Minute)
	}
}
