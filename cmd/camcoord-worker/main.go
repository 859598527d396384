package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/worker"
	"github.com/sentrygrid/camcoord/internal/worker/aiclient"
	"github.com/sentrygrid/camcoord/internal/worker/transcoder"
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
		fmt.Printf("camcoord-worker %s (%s)\n", version, commit)
		return exitOK
	}

	log.Configure(log.Config{Level: "info", Service: "camcoord-worker", Version: version})
	logger := log.WithComponent("camcoord-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, "config.load_failed").Msg("failed to load configuration")
		return exitMisconfigured
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Service: "camcoord-worker", Version: version})
	logger = log.WithComponent("camcoord-worker")

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

	skeletons := buildSkeletons(st, holder)

	var wg sync.WaitGroup
	for _, sk := range skeletons {
		wg.Add(1)
		go func(sk *worker.Skeleton) {
			defer wg.Done()
			sk.Run(ctx)
		}(sk)
	}

	logger.Info().Str(log.FieldEvent, "workers.started").Int("count", len(skeletons)).Msg("camcoord-worker running")
	wg.Wait()
	logger.Info().Str(log.FieldEvent, "workers.stopped").Msg("camcoord-worker stopped")
	return exitOK
}

// buildSkeletons wires the three Jobs from the loaded config. Per-Job
// tunables (batch size, quiescence, reclaim horizon, poll cadence, AI retry
// budget) are never captured by value: each Job and Skeleton holds the
// *config.Holder itself and re-reads workers.* on every Process/poll call,
// so a SIGHUP reload takes effect on the next iteration of a running
// worker with no restart. Only the ffmpeg binary path, the AI endpoint URL
// and the artifact storage root are read once here. The artifact root is
// restart-only under the Holder's contract; the ffmpeg path and AI endpoint
// URL are Workers fields that a reload swaps into the snapshot, but the
// Runner and Client built here keep the values they were built with.
func buildSkeletons(st *store.Store, holder *config.Holder) []*worker.Skeleton {
	app := holder.Get()
	w := app.Workers
	runner := transcoder.NewRunner(w.FFmpegPath)

	conversion := &worker.ConversionJob{
		Store:       st,
		Transcoder:  runner,
		StorageRoot: app.Artifact.Path,
		Holder:      holder,
		Logger:      log.WithComponent("conversion"),
	}
	optimization := &worker.OptimizationJob{
		Store:       st,
		Transcoder:  runner,
		StorageRoot: app.Artifact.Path,
		Holder:      holder,
		Logger:      log.WithComponent("optimization"),
	}
	aiJob := &worker.AIJob{
		Store:       st,
		Client:      aiclient.New(w.AIEndpointURL, w.PerEventTimeout()),
		Breaker:     aiclient.NewCircuitBreaker(worker.AICircuitBreakerThreshold, worker.AICircuitBreakerReset),
		StorageRoot: app.Artifact.Path,
		Holder:      holder,
		Logger:      log.WithComponent("ai"),
	}

	skeletons := []*worker.Skeleton{
		worker.NewSkeleton(conversion, holder),
		worker.NewSkeleton(optimization, holder),
		worker.NewSkeleton(aiJob, holder),
	}
	for _, sk := range skeletons {
		sk.Store = st
	}
	return skeletons
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
