// Package main provides the entry point for tsqr-server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/internal/infra/buildinfo"
	"github.com/yndnr/tsqr-go/internal/infra/confloader"
	"github.com/yndnr/tsqr-go/internal/infra/shutdown"
	"github.com/yndnr/tsqr-go/internal/qrdecode"
	"github.com/yndnr/tsqr-go/internal/server/config"
	"github.com/yndnr/tsqr-go/internal/server/httpserver"
	"github.com/yndnr/tsqr-go/internal/server/httpserver/handler"
	"github.com/yndnr/tsqr-go/internal/telemetry/logger"
	"github.com/yndnr/tsqr-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("tsqr-server " + buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting tsqr-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	secrets, err := cfg.POS.Secrets()
	if err != nil {
		return fmt.Errorf("load tenant secrets: %w", err)
	}
	if len(secrets) == 0 {
		log.Warn("no tenant secrets configured; verification requests will fail")
	}

	registry := metric.NewRegistry()

	gate, store, err := initGate(cfg, secrets, registry)
	if err != nil {
		return fmt.Errorf("init gate: %w", err)
	}
	registry.MustRegister(metric.NewNonceCollector(store))

	routerCfg := &httpserver.RouterConfig{
		Handler: handler.Config{
			Gate:           gate,
			Enforcement:    cfg.POS.Enforcement,
			MaxUploadBytes: cfg.Server.HTTP.MaxUploadBytes,
			Metrics:        registry.Handler(),
			Timer:          registry,
			Logger:         log,
		},
		Recorder:    registry,
		EnableAudit: true,
	}
	if cfg.Server.HTTP.RateLimit > 0 {
		routerCfg.RateLimiter = httpserver.NewRateLimiter(cfg.Server.HTTP.RateLimit, cfg.Server.HTTP.RateBurst)
	}

	httpServer := httpserver.New(cfg.Server.HTTP.Addr, httpserver.NewRouter(routerCfg),
		httpserver.WithTimeouts(cfg.Server.HTTP.ReadTimeout, cfg.Server.HTTP.WriteTimeout))

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	if *configFile != "" {
		watcher, err := watchConfig(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	go func() {
		log.Info("HTTP server listening",
			"addr", cfg.Server.HTTP.Addr,
			"tls", cfg.Server.HTTP.TLSCertFile != "",
			"enforcement", cfg.POS.Enforcement,
			"tenants", len(secrets))

		if err := httpServer.Start(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile); err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Shutdown()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initGate builds the decode pipeline, verifier and replay store.
func initGate(cfg *config.ServerConfig, secrets map[string]string, registry *metric.Registry) (*service.Gate, *service.NonceStore, error) {
	pipeline, err := qrdecode.New(
		qrdecode.WithOptions(qrdecode.Options{
			Scales:           cfg.Decode.Scales,
			MaxVariantPixels: cfg.Decode.MaxVariantPixels,
			MaxSourcePixels:  cfg.Decode.MaxSourcePixels,
			ThresholdBlock:   cfg.Decode.ThresholdBlock,
			ThresholdC:       cfg.Decode.ThresholdC,
		}),
		qrdecode.WithObserver(registry.ObserveDecodeStage),
	)
	if err != nil {
		return nil, nil, err
	}

	var storeOpts []service.NonceStoreOption
	if cfg.POS.NonceMaxEntries > 0 {
		storeOpts = append(storeOpts, service.WithMaxEntries(cfg.POS.NonceMaxEntries))
	}
	store := service.NewNonceStore(cfg.POS.NonceTTL, storeOpts...)

	gate := service.NewGate(service.GateConfig{
		Source:   pipeline,
		Verifier: service.NewVerifier(service.WithRecorder(registry)),
		Secrets:  secrets,
		Store:    store,
		Policy: service.Policy{
			MaxAge:        cfg.POS.MaxAge,
			MaxFutureSkew: cfg.POS.MaxFutureSkew,
		},
		Trust: service.ProfileTrustPolicy(service.DefaultProfiles),
	})
	return gate, store, nil
}

// watchConfig applies log.level changes from the config file. Other
// settings require a restart.
func watchConfig(path string, log logger.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	watcher.OnChange(func(string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		if strings.EqualFold(cfg.Log.Level, logger.GetLevel()) {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload rejected", "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	watcher.StartAsync()
	return watcher, nil
}
