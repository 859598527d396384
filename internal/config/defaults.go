package config

// DefaultConfig returns the built-in configuration used when neither a
// config file nor environment variables supply a value.
func DefaultConfig() AppConfig {
	return AppConfig{
		Version:  "dev",
		LogLevel: "info",
		Storage: StorageConfig{
			Driver:   "sqlite",
			Database: "camcoord.db",
		},
		Pool: PoolConfig{
			MinConnections:        2,
			MaxOverflow:           8,
			AcquireTimeoutSeconds: 5,
		},
		HTTP: HTTPConfig{
			BindHost:              "0.0.0.0",
			BindPort:              8080,
			AllowedOrigins:        []string{"*"},
			RequestTimeoutSeconds: 30,
		},
		Artifact: ArtifactConfig{
			Path: "/var/lib/camcoord/artifacts",
		},
		Workers: WorkersConfig{
			BatchSize:              5,
			QuiescenceSeconds:      3,
			ReclaimHorizonSeconds:  300,
			PollIdleSeconds:        2,
			PerEventTimeoutSeconds: 120,
			AIRetryBudget:          3,
			FFmpegPath:             "ffmpeg",
		},
	}
}
