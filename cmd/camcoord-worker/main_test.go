package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/store"
)

func TestBuildSkeletons_WiresAllThreeJobs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "camcoord_worker_test.db")
	st, err := store.Open(context.Background(), config.StorageConfig{Driver: "sqlite", Database: dbPath},
		config.PoolConfig{MinConnections: 2, MaxOverflow: 4, AcquireTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	app := config.AppConfig{
		Artifact: config.ArtifactConfig{Path: t.TempDir()},
		Workers: config.WorkersConfig{
			BatchSize:              5,
			QuiescenceSeconds:      2,
			ReclaimHorizonSeconds:  300,
			PollIdleSeconds:        1,
			PerEventTimeoutSeconds: 30,
			AIEndpointURL:          "http://ai.invalid",
			AIRetryBudget:          3,
			FFmpegPath:             "ffmpeg",
		},
	}
	holder := config.NewHolder(app, nil, "")

	skeletons := buildSkeletons(st, holder)
	if len(skeletons) != 3 {
		t.Fatalf("expected 3 skeletons (conversion, optimization, ai), got %d", len(skeletons))
	}
	for _, sk := range skeletons {
		if sk.Store != st {
			t.Fatalf("expected skeleton to be wired with the shared store")
		}
	}
}

func TestWatchReloadSignal_StopsOnContextCancel(t *testing.T) {
	holder := config.NewHolder(config.AppConfig{}, nil, "")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		watchReloadSignal(ctx, holder, zerolog.Nop())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchReloadSignal did not return after context cancellation")
	}
}
