package config

import "fmt"

// Validate checks that cfg is internally consistent and safe to run with.
// It intentionally stays local to this package rather than routing through
// the request-facing validation accumulator: config errors are startup
// failures, not client-facing field errors.
func Validate(cfg AppConfig) error {
	if cfg.Storage.Database == "" {
		return fmt.Errorf("config: storage.database must not be empty")
	}
	if cfg.Pool.MinConnections < 1 {
		return fmt.Errorf("config: pool.minConnections must be >= 1, got %d", cfg.Pool.MinConnections)
	}
	if cfg.Pool.MaxOverflow < 0 {
		return fmt.Errorf("config: pool.maxOverflow must be >= 0, got %d", cfg.Pool.MaxOverflow)
	}
	if cfg.Pool.AcquireTimeoutSeconds <= 0 {
		return fmt.Errorf("config: pool.acquireTimeoutSeconds must be > 0, got %f", cfg.Pool.AcquireTimeoutSeconds)
	}
	if cfg.HTTP.BindPort < 1 || cfg.HTTP.BindPort > 65535 {
		return fmt.Errorf("config: http.bindPort out of range: %d", cfg.HTTP.BindPort)
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		return fmt.Errorf("config: http.allowedOrigins must not be empty")
	}
	if cfg.Artifact.Path == "" {
		return fmt.Errorf("config: artifact.path must not be empty")
	}
	if cfg.Workers.BatchSize < 1 {
		return fmt.Errorf("config: workers.batchSize must be >= 1, got %d", cfg.Workers.BatchSize)
	}
	if cfg.Workers.QuiescenceSeconds < 0 {
		return fmt.Errorf("config: workers.quiescenceSeconds must be >= 0, got %d", cfg.Workers.QuiescenceSeconds)
	}
	if cfg.Workers.ReclaimHorizonSeconds < 1 {
		return fmt.Errorf("config: workers.reclaimHorizonSeconds must be >= 1, got %d", cfg.Workers.ReclaimHorizonSeconds)
	}
	if cfg.Workers.PollIdleSeconds <= 0 {
		return fmt.Errorf("config: workers.pollIdleSeconds must be > 0, got %f", cfg.Workers.PollIdleSeconds)
	}
	if cfg.Workers.PerEventTimeoutSeconds < 1 {
		return fmt.Errorf("config: workers.perEventTimeoutSeconds must be >= 1, got %d", cfg.Workers.PerEventTimeoutSeconds)
	}
	if cfg.Workers.AIRetryBudget < 0 {
		return fmt.Errorf("config: workers.aiRetryBudget must be >= 0, got %d", cfg.Workers.AIRetryBudget)
	}
	if cfg.Workers.FFmpegPath == "" {
		return fmt.Errorf("config: workers.ffmpegPath must not be empty")
	}
	return nil
}
