package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/api"
	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
)

var (
	version = "dev"
	commit  = "none"
)

const (
	exitOK             = 0
	exitUnhandled      = 1
	exitMisconfigured  = 2
	exitStorageUnavail = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("camcoord-api %s (%s)\n", version, commit)
		return exitOK
	}

	log.Configure(log.Config{Level: "info", Service: "camcoord-api", Version: version})
	logger := log.WithComponent("camcoord-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "config.load_failed").Msg("failed to load configuration")
		return exitMisconfigured
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "camcoord-api", Version: version})
	logger = log.WithComponent("camcoord-api")

	holder := config.NewHolder(cfg, loader, *configPath)
	defer holder.Stop()

	st, err := store.Open(ctx, cfg.Storage, cfg.Pool)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "store.open_failed").Msg("failed to open storage")
		return exitStorageUnavail
	}
	defer st.Close()

	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
	}
	go watchReloadSignal(ctx, holder, logger)

	srv := api.New(st, holder)
	listenAddr := fmt.Sprintf("%s:%d", cfg.HTTP.BindHost, cfg.HTTP.BindPort)
	httpServer := &http.Server{
		Addr:         listenAddr,
		Handler:      srv,
		ReadTimeout:  cfg.HTTP.RequestTimeout(),
		WriteTimeout: cfg.HTTP.RequestTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str(log.FieldEvent, "http.listening").Str("addr", listenAddr).Msg("camcoord-api listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str(log.FieldEvent, "http.shutdown_failed").Msg("graceful shutdown failed")
			return exitUnhandled
		}
		logger.Info().Str(log.FieldEvent, "http.shutdown_complete").Msg("camcoord-api stopped")
		return exitOK
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Str(log.FieldEvent, "http.serve_failed").Msg("listener failed")
			return exitUnhandled
		}
		return exitOK
	}
}

func watchReloadSignal(ctx context.Context, holder *config.Holder, logger zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info().Str(log.FieldEvent, "config.reload_signal").Msg("received SIGHUP, reloading workers config")
			reloadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := holder.Reload(reloadCtx); err != nil {
				logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
			}
			cancel()
		}
	}
}
