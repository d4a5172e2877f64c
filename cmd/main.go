package main

import (
	"context"
	"runtime"
	"time"

	"github.com/Borislavv/shared-pointer/internal/demo"
	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/Borislavv/shared-pointer/pkg/gc"
	"github.com/Borislavv/shared-pointer/pkg/shutdown"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"
)

const (
	configPath      = "sharedPointer.cfg.yaml"
	configPathLocal = "sharedPointer.cfg.local.yaml"
)

// setMaxProcs automatically sets the optimal GOMAXPROCS value (CPU parallelism)
// based on the available CPUs and cgroup/docker CPU quotas (uses automaxprocs).
func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadCfg prefers the local config file, falls back to the checked-in one,
// and falls back to built-in defaults when neither exists.
func loadCfg() *config.Config {
	if err := godotenv.Load(); err == nil {
		log.Info().Msg("[config] .env loaded")
	}

	for _, path := range []string{configPathLocal, configPath} {
		cfg, err := config.LoadConfig(path)
		if err == nil {
			log.Info().Msgf("[config] config loaded from '%v'", path)
			return cfg
		}
	}

	log.Info().Msg("[config] no config file found, using defaults")
	return config.Default()
}

// Main entrypoint: configures and starts the shared-pointer demo application.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setMaxProcs()

	cfg := loadCfg()

	gracefulShutdown := shutdown.NewGraceful(ctx, cancel)
	gracefulShutdown.SetGracefulTimeout(time.Minute)

	app := demo.NewApp(ctx, cfg)

	gracefulShutdown.Add(1)
	go app.Start(gracefulShutdown)

	if cfg.Demo.ForceGC.Enabled {
		gc.Run(ctx, cfg)
	}

	if err := gracefulShutdown.ListenCancelAndAwait(); err != nil {
		log.Err(err).Msg("failed to gracefully shut down service")
	}
}
