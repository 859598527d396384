package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/log"
)

// Holder holds configuration with atomic, thread-safe reload capability.
//
// Only the Workers section is eligible for hot reload. Every other section
// (storage, pool, http, artifact) is read once at process start and ignored
// until restart. A change on disk to storage, pool or artifact, or to the
// HTTP bind host or port, is logged; other HTTP changes are not. This
// mirrors the deployment reality that rebinding a listener or reopening a
// connection pool mid-flight is riskier than swapping a few worker tuning
// knobs.
type Holder struct {
	reloadOpMu sync.Mutex
	epoch      atomic.Uint64
	snapshot   atomic.Pointer[Snapshot]
	loader     *Loader
	configPath string
	configDir  string
	configFile string
	watcher    *fsnotify.Watcher
	logger     zerolog.Logger
}

// NewHolder creates a Holder seeded with an already-loaded, validated config.
func NewHolder(initial AppConfig, loader *Loader, configPath string) *Holder {
	h := &Holder{
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
	snap := BuildSnapshot(initial)
	h.swap(&snap)
	return h
}

// Get returns the current configuration.
func (h *Holder) Get() AppConfig {
	return h.Snapshot().App
}

// Current returns the current immutable snapshot pointer.
func (h *Holder) Current() *Snapshot {
	return h.snapshot.Load()
}

// Snapshot returns a copy of the current snapshot.
func (h *Holder) Snapshot() Snapshot {
	snap := h.Current()
	if snap == nil {
		return Snapshot{}
	}
	return *snap
}

func (h *Holder) swap(next *Snapshot) *Snapshot {
	if next == nil {
		return h.snapshot.Load()
	}
	next.Epoch = h.epoch.Add(1)
	return h.snapshot.Swap(next)
}

// Reload re-reads the config file and environment, validates the result,
// and applies only the Workers subsection to the live snapshot. Non-worker
// changes are detected and logged but never applied without a restart.
func (h *Holder) Reload(_ context.Context) error {
	h.reloadOpMu.Lock()
	defer h.reloadOpMu.Unlock()

	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	current := h.Snapshot().App

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.warnOnRestartOnlyChanges(current, newCfg)

	next := current
	next.Workers = newCfg.Workers
	if err := Validate(next); err != nil {
		h.logger.Error().Err(err).Str(log.FieldEvent, "config.validation_failed").Msg("reloaded workers section failed validation")
		return fmt.Errorf("validate config: %w", err)
	}

	snap := BuildSnapshot(next)
	h.swap(&snap)

	h.logger.Info().Str(log.FieldEvent, "config.reload_success").Msg("workers configuration reloaded")
	return nil
}

// warnOnRestartOnlyChanges logs, but does not apply, differences in sections
// that require a process restart to take effect safely.
func (h *Holder) warnOnRestartOnlyChanges(old, newCfg AppConfig) {
	if old.Storage != newCfg.Storage {
		h.logger.Warn().Str(log.FieldEvent, "config.restart_required").Str("section", "storage").Msg("storage config changed on disk but requires restart to apply")
	}
	if old.Pool != newCfg.Pool {
		h.logger.Warn().Str(log.FieldEvent, "config.restart_required").Str("section", "pool").Msg("pool config changed on disk but requires restart to apply")
	}
	if old.HTTP.BindHost != newCfg.HTTP.BindHost || old.HTTP.BindPort != newCfg.HTTP.BindPort {
		h.logger.Warn().Str(log.FieldEvent, "config.restart_required").Str("section", "http").Msg("http bind address changed on disk but requires restart to apply")
	}
	if old.Artifact != newCfg.Artifact {
		h.logger.Warn().Str(log.FieldEvent, "config.restart_required").Str("section", "artifact").Msg("artifact config changed on disk but requires restart to apply")
	}
}

// StartWatcher watches the config file's directory for changes and triggers
// a debounced Reload. A no-op if configPath is empty (env/default-only
// deployments have nothing to watch).
func (h *Holder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().Str(log.FieldEvent, "config.watcher_disabled").Msg("no config file given, hot reload disabled")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher
	h.configDir = filepath.Dir(h.configPath)
	h.configFile = filepath.Base(h.configPath)

	if err := watcher.Add(h.configDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.logger.Info().Str(log.FieldEvent, "config.watcher_started").Str(log.FieldPath, h.configPath).Msg("watching config file for changes")
	go h.watchLoop(ctx)
	return nil
}

func (h *Holder) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	const debounceDuration = 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(log.FieldEvent, "config.watcher_stopped").Msg("config watcher stopped")
			if h.watcher != nil {
				_ = h.watcher.Close()
			}
			return

		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if h.configFile != "" && filepath.Base(event.Name) != h.configFile {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().Err(err).Str(log.FieldEvent, "config.auto_reload_failed").Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Str(log.FieldEvent, "config.watcher_error").Msg("config watcher error")
		}
	}
}

// Stop closes the file watcher, if one is running.
func (h *Holder) Stop() {
	if h.watcher != nil {
		_ = h.watcher.Close()
	}
}

