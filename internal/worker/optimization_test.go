package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/store"
)

func newOptimizationTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "camcoord_optimization_test.db")
	s, err := store.Open(context.Background(), config.StorageConfig{Driver: "sqlite", Database: dbPath},
		config.PoolConfig{MinConnections: 2, MaxOverflow: 4, AcquireTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOptimizationJob_ReleasesClaimWhenMP4NotQuiescent(t *testing.T) {
	s := newOptimizationTestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201"); err != nil {
		t.Fatalf("register camera: %v", err)
	}
	ev, err := s.CreateEvent(ctx, "camera_1", time.Now(), 50, nil)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := s.UpdateFileStatus(ctx, ev.ID, "video_h264", "camera_1/videos/1.h264", nil); err != nil {
		t.Fatalf("update file status: %v", err)
	}
	claimed, err := s.ClaimConversionBatch(ctx, "conversion-worker", 5, time.Minute)
	if err != nil || len(claimed) != 1 {
		t.Fatalf("claim conversion batch: %v (claimed=%d)", err, len(claimed))
	}
	// Conversion already committed but the resulting MP4 is not present on
	// disk at all (never written in this test), so the quiescence guard
	// cannot see it as stable and must release rather than proceed.
	if err := s.CommitConversion(ctx, ev.ID, "conversion-worker", "camera_1/videos/1.mp4", 12.5); err != nil {
		t.Fatalf("commit conversion: %v", err)
	}

	storageRoot := t.TempDir()
	holder := config.NewHolder(config.AppConfig{Workers: config.WorkersConfig{
		QuiescenceSeconds:      3600,
		PerEventTimeoutSeconds: 5,
	}}, nil, "")
	job := &OptimizationJob{
		Store:       s,
		StorageRoot: storageRoot,
		Holder:      holder,
		Logger:      zerolog.Nop(),
	}

	batch, err := job.Claim(ctx, "worker-1", 5, time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if len(batch) != 1 {
		t.Fatalf("expected 1 claimable event, got %d", len(batch))
	}

	outcome := job.Process(ctx, batch[0], "worker-1")
	if outcome != OutcomeReleased {
		t.Fatalf("expected OutcomeReleased for a missing mp4 source file, got %v", outcome)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.MP4ConversionStatus != "complete" {
		t.Fatalf("expected mp4 status to remain complete after release, got %q", got.MP4ConversionStatus)
	}
}
