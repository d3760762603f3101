package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"fenrir/internal/amm"
	"fenrir/internal/config"
	dec "fenrir/internal/decimal"
	"fenrir/internal/engine"
	fenrirNet "fenrir/internal/net"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	maxImpact, err := dec.Parse(cfg.MaxImpact)
	if err != nil {
		log.Fatal().Err(err).Str("max_impact", cfg.MaxImpact).Msg("invalid max_impact")
	}
	impactMultiplier, err := dec.Parse(cfg.ImpactMultiplier)
	if err != nil {
		log.Fatal().Err(err).Str("impact_multiplier", cfg.ImpactMultiplier).Msg("invalid impact_multiplier")
	}
	defaultSlippage, err := dec.Parse(cfg.DefaultSlippage)
	if err != nil {
		log.Fatal().Err(err).Str("default_slippage", cfg.DefaultSlippage).Msg("invalid default_slippage")
	}

	eng := engine.New()
	market := amm.NewCoordinator(maxImpact, impactMultiplier, defaultSlippage)

	srv := fenrirNet.New("0.0.0.0", 9001, eng, market)
	eng.SetReporter(srv)

	go srv.Run(ctx)
	go serveHealth(ctx, cfg.HealthAddr)

	log.Info().Str("listen", "0.0.0.0:9001").Str("health", cfg.HealthAddr).Msg("fenrir running")

	<-ctx.Done()
}

// serveHealth runs a minimal loopback liveness endpoint. This is the one
// place the server reaches for net/http instead of a router: a single GET
// route isn't enough surface to justify pulling one in (see DESIGN.md).
func serveHealth(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("health endpoint exited")
	}
}
