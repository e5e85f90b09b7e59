package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"drone-city-sim/internal/api"
	"drone-city-sim/internal/config"
	"drone-city-sim/internal/logging"
	"drone-city-sim/internal/sim"
	"drone-city-sim/internal/telemetry"
)

var (
	configDir = flag.String("config", ".", "Directory holding "+config.FileName)
	addr      = flag.String("addr", "", "Listen address, overrides server.addr")
	seed      = flag.Int64("seed", 0, "City seed, 0 picks one from the clock")
)

func main() {
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			errLog := zerolog.New(os.Stderr)
			errLog.Fatal().Err(err).Msg("config")
		}
	}
	if *addr != "" {
		viper.Set("server.addr", *addr)
	}

	logCfg := config.GetLogConfig()
	var logFile *os.File
	if logCfg.File != "" {
		f, err := os.OpenFile(logCfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			errLog := zerolog.New(os.Stderr)
			errLog.Fatal().Err(err).Str("file", logCfg.File).Msg("open log file")
		}
		defer f.Close()
		logFile = f
	}
	var log zerolog.Logger
	var err error
	if logFile != nil {
		log, err = logging.Setup(logCfg, logFile)
	} else {
		log, err = logging.Setup(logCfg, nil)
	}
	if err != nil {
		log.Warn().Err(err).Msg("graylog disabled")
	}

	simCfg := config.GetSimConfig()
	if *seed != 0 {
		simCfg.Seed = *seed
	}
	s := sim.New(simCfg, time.Now())
	static := s.Static()
	log.Info().
		Int("buildings", len(static.Buildings)).
		Int("vegetation", len(static.Vegetation)).
		Int("placementFallbacks", static.Fallbacks).
		Msg("city generated")

	metrics, err := sim.NewMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("metrics disabled")
	}

	engCfg := config.GetEngineConfig()
	eng := sim.NewEngine(s, sim.EngineConfig{
		TickHz:    engCfg.TickHz,
		QueueSize: engCfg.QueueSize,
		Logger:    log.With().Str("component", "engine").Logger(),
		Metrics:   metrics,
	})

	srvCfg := config.GetServerConfig()
	server := api.NewServer(eng, srvCfg, log.With().Str("component", "api").Logger())
	httpServer := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: server.Handler(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("simulation stopped")
		}
	}()

	influx := telemetry.NewManager(config.GetInfluxConfig(), log.With().Str("component", "influx").Logger())
	influxDone := make(chan struct{})
	if err := influx.Connect(ctx); err == nil {
		ch, unsub := eng.Subscribe(ctx)
		go func() {
			defer close(influxDone)
			defer unsub()
			_ = influx.Run(ctx, ch)
		}()
	} else {
		close(influxDone)
		if !errors.Is(err, telemetry.ErrDisabled) {
			log.Error().Err(err).Msg("telemetry disabled")
		}
	}

	go func() {
		log.Info().Str("addr", srvCfg.Addr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	cancel()
	<-influxDone
	if err := influx.Close(); err != nil {
		log.Error().Err(err).Msg("telemetry close")
	}

	log.Info().Msg("shutdown complete")
}
