package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Borislavv/shared-pointer/pkg/config"
	"github.com/Borislavv/shared-pointer/pkg/k8s/probe/liveness"
	"github.com/VictoriaMetrics/metrics"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

// HTTP is the ops surface of the demo: Prometheus text on /metrics and a
// liveness answer on /healthz. It follows the serve-then-await-shutdown
// pattern: ListenAndServe spawns the listener and a watcher that drains the
// server once the context is cancelled.
type HTTP struct {
	ctx    context.Context
	cfg    *config.Config
	probe  liveness.Prober
	server *fasthttp.Server
}

func New(ctx context.Context, cfg *config.Config, probe liveness.Prober) *HTTP {
	s := &HTTP{ctx: ctx, cfg: cfg, probe: probe}
	s.server = &fasthttp.Server{
		Handler:     s.buildRouter().Handler,
		ReadTimeout: 5 * time.Second,
	}
	return s
}

func (s *HTTP) ListenAndServe() {
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go s.serve(wg)

	wg.Add(1)
	go s.shutdown(wg)
}

func (s *HTTP) serve(wg *sync.WaitGroup) {
	defer wg.Done()

	name := s.cfg.Demo.Api.Name
	port := s.cfg.Demo.Api.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	log.Info().Msgf("[server] %v was started on %v", name, port)
	defer log.Info().Msgf("[server] %v was stopped on %v", name, port)

	if err := s.server.ListenAndServe(port); err != nil {
		log.Error().Err(err).Msgf("[server] %v failed to listen and serve port %v", name, port)
	}
}

func (s *HTTP) shutdown(wg *sync.WaitGroup) {
	defer wg.Done()

	<-s.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.ShutdownWithContext(ctx); err != nil {
		log.Warn().Msgf("[server] %v shutdown failed: %v", s.cfg.Demo.Api.Name, err.Error())
	}
}

func (s *HTTP) buildRouter() *router.Router {
	r := router.New()
	r.GET("/metrics", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		metrics.WritePrometheus(ctx, true)
	})
	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) {
		if s.probe != nil && !s.probe.IsAlive() {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})
	return r
}
