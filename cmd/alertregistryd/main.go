// Package main is the entry point for the active-alert registry daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fty-ops/alert-registry/internal/bus"
	"github.com/fty-ops/alert-registry/internal/clock"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
	"github.com/fty-ops/alert-registry/internal/infrastructure/config"
	"github.com/fty-ops/alert-registry/internal/infrastructure/httpserver"
	"github.com/fty-ops/alert-registry/internal/infrastructure/logger"
	"github.com/fty-ops/alert-registry/internal/infrastructure/redisconn"
	"github.com/fty-ops/alert-registry/internal/infrastructure/tracing"
	"github.com/fty-ops/alert-registry/internal/persistence"
	"github.com/fty-ops/alert-registry/internal/supervisor"
	"github.com/fty-ops/alert-registry/internal/ttl"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.BoolVar(verbose, "v", false, "enable debug logging (shorthand)")
	help := flag.Bool("help", false, "print usage")
	flag.BoolVar(help, "h", false, "print usage (shorthand)")
	flag.Usage = printUsage
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	setupLogger(cfg)

	log.Info().Str("app", cfg.App.Name).Str("version", cfg.App.Version).Msg("starting active-alert registry")

	redisClient, err := redisconn.New(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis connection")
		}
	}()

	shutdownTracer, err := tracing.InitTracer(tracing.Config{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize tracing, continuing without it")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(ctx); err != nil {
				log.Error().Err(err).Msg("error shutting down tracer")
			}
		}()
	}

	store := registry.New()
	expiry := ttl.NewMap(int64(cfg.Registry.StaleAfter.Seconds()))
	clk := clock.System{}

	if loaded, err := persistence.Load(cfg.Persistence.StateFile); err != nil {
		log.Warn().Err(err).Str("path", cfg.Persistence.StateFile).Msg("starting with an empty registry")
	} else {
		store.Lock()
		for _, a := range loaded {
			store.InsertEndLocked(a)
		}
		store.Unlock()
		log.Info().Int("count", len(loaded)).Msg("reloaded registry from state file")
	}

	streamBus := bus.NewStreamBus(redisClient.Raw(), cfg.EventBus.ConsumerID)
	mailboxBus := bus.NewMailboxBus(redisClient.Raw())

	super := supervisor.New(cfg, store, expiry, clk, streamBus, mailboxBus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := super.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start supervisor")
	}

	admin := httpserver.New(cfg, store, cfg.App.Version)
	go func() {
		log.Info().Str("address", cfg.Server.Address()).Msg("admin http server started")
		if err := admin.Listen(); err != nil {
			log.Error().Err(err).Msg("admin http server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	if err := admin.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error shutting down admin http server")
	}
	if err := super.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during supervisor shutdown")
		os.Exit(1)
	}

	log.Info().Msg("stopped cleanly")
}

func setupLogger(cfg *config.Config) {
	logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.App.IsDevelopment(),
	})
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "fty-alert-list: active-alert registry daemon\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n  %s [flags]\n\nFlags:\n", os.Args[0])
	flag.PrintDefaults()
}
