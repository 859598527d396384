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

func newAITestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "camcoord_ai_test.db")
	s, err := store.Open(context.Background(), config.StorageConfig{Driver: "sqlite", Database: dbPath},
		config.PoolConfig{MinConnections: 2, MaxOverflow: 4, AcquireTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAIJob_ReleasesClaimWhenImagesNotQuiescent(t *testing.T) {
	s := newAITestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201"); err != nil {
		t.Fatalf("register camera: %v", err)
	}
	ev, err := s.CreateEvent(ctx, "camera_1", time.Now(), 50, nil)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if _, err := s.UpdateFileStatus(ctx, ev.ID, "image_a", "camera_1/pictures/1_a.jpg", nil); err != nil {
		t.Fatalf("update file status a: %v", err)
	}
	if _, err := s.UpdateFileStatus(ctx, ev.ID, "image_b", "camera_1/pictures/1_b.jpg", nil); err != nil {
		t.Fatalf("update file status b: %v", err)
	}

	storageRoot := t.TempDir()
	holder := config.NewHolder(config.AppConfig{Workers: config.WorkersConfig{
		QuiescenceSeconds:      3600,
		PerEventTimeoutSeconds: 5,
		AIRetryBudget:          2,
	}}, nil, "")
	job := &AIJob{
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
		t.Fatalf("expected OutcomeReleased for missing image files, got %v", outcome)
	}

	got, err := s.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.AIProcessed {
		t.Fatalf("expected ai_processed to remain false after release")
	}
}
