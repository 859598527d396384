// Package config provides configuration loading, validation, and hot-reload
// for the camera event coordination service.
package config

import "time"

// AppConfig is the declarative, file/env-sourced configuration surface
// described in spec §6. It is never mutated in place; a new AppConfig is
// built on load/reload and swapped into a Snapshot.
type AppConfig struct {
	Version  string `yaml:"version,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	Storage StorageConfig `yaml:"storage"`
	Pool    PoolConfig    `yaml:"pool"`
	HTTP    HTTPConfig    `yaml:"http"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Workers WorkersConfig `yaml:"workers"`
	LogRetention LogRetentionConfig `yaml:"logRetention,omitempty"`
}

// StorageConfig names the relational store to connect to.
type StorageConfig struct {
	Driver   string `yaml:"driver,omitempty"` // "sqlite" (default) or a client/server DSN-compatible driver
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// PoolConfig bounds the Store's connection pool.
type PoolConfig struct {
	MinConnections       int     `yaml:"minConnections,omitempty"`
	MaxOverflow          int     `yaml:"maxOverflow,omitempty"`
	AcquireTimeoutSeconds float64 `yaml:"acquireTimeoutSeconds,omitempty"`
}

// HTTPConfig configures the Event Coordination API's listener.
type HTTPConfig struct {
	BindHost              string   `yaml:"bindHost,omitempty"`
	BindPort              int      `yaml:"bindPort,omitempty"`
	AllowedOrigins        []string `yaml:"allowedOrigins,omitempty"`
	RequestTimeoutSeconds float64  `yaml:"requestTimeoutSeconds,omitempty"`
}

// ArtifactConfig names the root of the shared camera artifact filesystem.
type ArtifactConfig struct {
	Path string `yaml:"path"`
}

// WorkersConfig tunes the three background workers. This is the only
// section that may be hot-reloaded without a process restart.
type WorkersConfig struct {
	BatchSize               int    `yaml:"batchSize,omitempty"`
	QuiescenceSeconds       int    `yaml:"quiescenceSeconds,omitempty"`
	ReclaimHorizonSeconds   int    `yaml:"reclaimHorizonSeconds,omitempty"`
	PollIdleSeconds         float64 `yaml:"pollIdleSeconds,omitempty"`
	PerEventTimeoutSeconds  int    `yaml:"perEventTimeoutSeconds,omitempty"`
	AIEndpointURL           string `yaml:"aiEndpointUrl,omitempty"`
	AIRetryBudget           int    `yaml:"aiRetryBudget,omitempty"`
	FFmpegPath              string `yaml:"ffmpegPath,omitempty"`
}

// LogRetentionConfig is optional; a zero value disables retention pruning.
type LogRetentionConfig struct {
	MaxDays int `yaml:"maxDays,omitempty"`
}

// Duration helpers used by callers that need time.Duration rather than a
// raw float/int count of seconds.
func (p PoolConfig) AcquireTimeout() time.Duration {
	return time.Duration(p.AcquireTimeoutSeconds * float64(time.Second))
}

func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds * float64(time.Second))
}

func (w WorkersConfig) PollIdle() time.Duration {
	return time.Duration(w.PollIdleSeconds * float64(time.Second))
}

func (w WorkersConfig) Quiescence() time.Duration {
	return time.Duration(w.QuiescenceSeconds) * time.Second
}

func (w WorkersConfig) ReclaimHorizon() time.Duration {
	return time.Duration(w.ReclaimHorizonSeconds) * time.Second
}

func (w WorkersConfig) PerEventTimeout() time.Duration {
	return time.Duration(w.PerEventTimeoutSeconds) * time.Second
}

// Clone returns a deep-enough copy of AppConfig for safe concurrent reads
// via atomic.Pointer swaps (slices are replaced wholesale, never mutated
// in place by callers).
func (c AppConfig) Clone() AppConfig {
	clone := c
	if c.HTTP.AllowedOrigins != nil {
		clone.HTTP.AllowedOrigins = append([]string(nil), c.HTTP.AllowedOrigins...)
	}
	return clone
}
