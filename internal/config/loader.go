package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader loads AppConfig with precedence: environment variables override
// the config file, which overrides built-in defaults.
type Loader struct {
	ConfigPath string
	Version    string
}

// NewLoader builds a Loader for the given optional YAML config path.
func NewLoader(configPath, version string) *Loader {
	return &Loader{ConfigPath: configPath, Version: version}
}

// Load reads the config file (if any), overlays environment variables, and
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := DefaultConfig()
	if l.Version != "" {
		cfg.Version = l.Version
	}

	if l.ConfigPath != "" {
		data, err := os.ReadFile(l.ConfigPath)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config file %s: %w", l.ConfigPath, err)
		}
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file %s: %w", l.ConfigPath, err)
		}
		cfg = mergeFile(cfg, fileCfg)
	}

	cfg = applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// mergeFile overlays file onto base section by section: a section whose key
// field is non-zero in file (Storage.Database, Pool.MinConnections,
// HTTP.BindPort, Artifact.Path, Workers.BatchSize, LogRetention.MaxDays)
// replaces base's whole section, so zero fields inside it are not filled
// from base. LogLevel is overlaid on its own.
func mergeFile(base, file AppConfig) AppConfig {
	if file.LogLevel != "" {
		base.LogLevel = file.LogLevel
	}
	if file.Storage.Database != "" {
		base.Storage = file.Storage
	}
	if file.Pool.MinConnections != 0 {
		base.Pool = file.Pool
	}
	if file.HTTP.BindPort != 0 {
		base.HTTP = file.HTTP
	}
	if file.Artifact.Path != "" {
		base.Artifact = file.Artifact
	}
	if file.Workers.BatchSize != 0 {
		base.Workers = file.Workers
	}
	if file.LogRetention.MaxDays != 0 {
		base.LogRetention = file.LogRetention
	}
	return base
}

// applyEnv overlays CAMCOORD_* environment variables onto cfg, taking
// precedence over both the file and the defaults.
func applyEnv(cfg AppConfig) AppConfig {
	cfg.LogLevel = ParseString("CAMCOORD_LOG_LEVEL", cfg.LogLevel)

	cfg.Storage.Driver = ParseString("CAMCOORD_DB_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Host = ParseString("CAMCOORD_DB_HOST", cfg.Storage.Host)
	cfg.Storage.Port = ParseInt("CAMCOORD_DB_PORT", cfg.Storage.Port)
	cfg.Storage.Database = ParseString("CAMCOORD_DB_DATABASE", cfg.Storage.Database)
	cfg.Storage.User = ParseString("CAMCOORD_DB_USER", cfg.Storage.User)
	cfg.Storage.Password = ParseString("CAMCOORD_DB_PASSWORD", cfg.Storage.Password)

	cfg.Pool.MinConnections = ParseInt("CAMCOORD_POOL_MIN", cfg.Pool.MinConnections)
	cfg.Pool.MaxOverflow = ParseInt("CAMCOORD_POOL_MAX_OVERFLOW", cfg.Pool.MaxOverflow)
	cfg.Pool.AcquireTimeoutSeconds = ParseFloat("CAMCOORD_POOL_ACQUIRE_TIMEOUT_SECONDS", cfg.Pool.AcquireTimeoutSeconds)

	cfg.HTTP.BindHost = ParseString("CAMCOORD_HTTP_BIND_HOST", cfg.HTTP.BindHost)
	cfg.HTTP.BindPort = ParseInt("CAMCOORD_HTTP_BIND_PORT", cfg.HTTP.BindPort)
	cfg.HTTP.AllowedOrigins = ParseStringSlice("CAMCOORD_HTTP_ALLOWED_ORIGINS", cfg.HTTP.AllowedOrigins)
	cfg.HTTP.RequestTimeoutSeconds = ParseFloat("CAMCOORD_HTTP_REQUEST_TIMEOUT_SECONDS", cfg.HTTP.RequestTimeoutSeconds)

	cfg.Artifact.Path = ParseString("CAMCOORD_ARTIFACT_PATH", cfg.Artifact.Path)

	cfg.Workers.BatchSize = ParseInt("CAMCOORD_WORKERS_BATCH_SIZE", cfg.Workers.BatchSize)
	cfg.Workers.QuiescenceSeconds = ParseInt("CAMCOORD_WORKERS_QUIESCENCE_SECONDS", cfg.Workers.QuiescenceSeconds)
	cfg.Workers.ReclaimHorizonSeconds = ParseInt("CAMCOORD_WORKERS_RECLAIM_HORIZON_SECONDS", cfg.Workers.ReclaimHorizonSeconds)
	cfg.Workers.PollIdleSeconds = ParseFloat("CAMCOORD_WORKERS_POLL_IDLE_SECONDS", cfg.Workers.PollIdleSeconds)
	cfg.Workers.PerEventTimeoutSeconds = ParseInt("CAMCOORD_WORKERS_PER_EVENT_TIMEOUT_SECONDS", cfg.Workers.PerEventTimeoutSeconds)
	cfg.Workers.AIEndpointURL = ParseString("CAMCOORD_WORKERS_AI_ENDPOINT_URL", cfg.Workers.AIEndpointURL)
	cfg.Workers.AIRetryBudget = ParseInt("CAMCOORD_WORKERS_AI_RETRY_BUDGET", cfg.Workers.AIRetryBudget)
	cfg.Workers.FFmpegPath = ParseString("CAMCOORD_WORKERS_FFMPEG_PATH", cfg.Workers.FFmpegPath)

	cfg.LogRetention.MaxDays = ParseInt("CAMCOORD_LOG_RETENTION_MAX_DAYS", cfg.LogRetention.MaxDays)

	return cfg
}
