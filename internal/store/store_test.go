package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sentrygrid/camcoord/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "camcoord_test.db")
	s, err := Open(context.Background(), config.StorageConfig{Driver: "sqlite", Database: dbPath},
		config.PoolConfig{MinConnections: 2, MaxOverflow: 4, AcquireTimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterCamera_IdempotentUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cam1, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cam2, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201")
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if cam1.ID != cam2.ID {
		t.Fatalf("expected same surrogate id, got %d and %d", cam1.ID, cam2.ID)
	}

	cameras, err := s.ListCameras(ctx)
	if err != nil {
		t.Fatalf("list cameras: %v", err)
	}
	if len(cameras) != 1 {
		t.Fatalf("expected exactly one camera row, got %d", len(cameras))
	}

	updated, err := s.RegisterCamera(ctx, "camera_1", "Front Door v2", "Entry", "192.168.1.202")
	if err != nil {
		t.Fatalf("update via re-register: %v", err)
	}
	if updated.DisplayName != "Front Door v2" || updated.NetworkAddr != "192.168.1.202" {
		t.Fatalf("expected last-write-wins update, got %+v", updated)
	}
}

func TestCreateEvent_DefaultsAndHappyPath(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201"); err != nil {
		t.Fatalf("register camera: %v", err)
	}

	ts, _ := time.Parse(time.RFC3339, "2025-11-26T14:30:22Z")
	confidence := 0.0
	ev, err := s.CreateEvent(ctx, "camera_1", ts, 187.5, &confidence)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	if ev.Status != "processing" || ev.MP4ConversionStatus != "pending" {
		t.Fatalf("unexpected defaults: %+v", ev)
	}
	if ev.ImageATransferred || ev.ImageBTransferred || ev.ThumbnailTransferred || ev.VideoH264Transferred {
		t.Fatalf("expected all transfer flags false at creation: %+v", ev)
	}
}

func TestUpdateFileStatus_IdempotentThenConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustRegisterAndCreate(t, s)

	path := "camera_1/pictures/1_20251126_143022_a.jpg"
	ev, err := s.UpdateFileStatus(ctx, 1, "image_a", path, nil)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if !ev.ImageATransferred || ev.ImageAPath == nil || *ev.ImageAPath != path {
		t.Fatalf("expected image_a set, got %+v", ev)
	}

	// Same path again: no-op success.
	ev2, err := s.UpdateFileStatus(ctx, 1, "image_a", path, nil)
	if err != nil {
		t.Fatalf("idempotent repeat: %v", err)
	}
	if ev2.ImageAPath == nil || *ev2.ImageAPath != path {
		t.Fatalf("expected unchanged path, got %+v", ev2)
	}

	// Different path: conflict.
	_, err = s.UpdateFileStatus(ctx, 1, "image_a", "camera_1/pictures/1_other_a.jpg", nil)
	if !IsKind(err, KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUpdateEventStatus_TerminalThenConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustRegisterAndCreate(t, s)

	ev, err := s.UpdateEventStatus(ctx, 1, "complete")
	if err != nil {
		t.Fatalf("transition to complete: %v", err)
	}
	if ev.Status != "complete" {
		t.Fatalf("expected complete, got %s", ev.Status)
	}

	if _, err := s.UpdateEventStatus(ctx, 1, "complete"); !IsKind(err, KindConflict) {
		t.Fatalf("expected Conflict on repeat complete, got %v", err)
	}
	if _, err := s.UpdateEventStatus(ctx, 1, "interrupted"); !IsKind(err, KindConflict) {
		t.Fatalf("expected Conflict on interrupted after complete, got %v", err)
	}
}

func TestClaimConversionBatch_AtMostOneHolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustRegisterAndCreate(t, s)

	if _, err := s.UpdateFileStatus(ctx, 1, "video_h264", "camera_1/videos/1_video.h264", nil); err != nil {
		t.Fatalf("update file status: %v", err)
	}

	batch1, err := s.ClaimConversionBatch(ctx, "worker-a", 5, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim 1: %v", err)
	}
	if len(batch1) != 1 {
		t.Fatalf("expected 1 claimed event, got %d", len(batch1))
	}

	batch2, err := s.ClaimConversionBatch(ctx, "worker-b", 5, 5*time.Minute)
	if err != nil {
		t.Fatalf("claim 2: %v", err)
	}
	if len(batch2) != 0 {
		t.Fatalf("expected second claimant to see no candidates while claim is fresh, got %d", len(batch2))
	}
}

func TestClaimConversionBatch_StaleReclaim(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustRegisterAndCreate(t, s)

	if _, err := s.UpdateFileStatus(ctx, 1, "video_h264", "camera_1/videos/1_video.h264", nil); err != nil {
		t.Fatalf("update file status: %v", err)
	}

	if _, err := s.ClaimConversionBatch(ctx, "worker-dead", 5, 0); err != nil {
		t.Fatalf("first claim: %v", err)
	}

	// A zero reclaim horizon means any existing claim is immediately stale,
	// simulating a worker that died mid-work past the horizon.
	reclaimed, err := s.ClaimConversionBatch(ctx, "worker-recovered", 5, 0)
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if len(reclaimed) != 1 || *reclaimed[0].ClaimHolder != "worker-recovered" {
		t.Fatalf("expected stale claim reassigned to recovering worker, got %+v", reclaimed)
	}

	// The dead worker's commit attempt must now detect the mismatch.
	err = s.CommitConversion(ctx, 1, "worker-dead", "camera_1/videos/1_video.mp4", 60)
	if !IsKind(err, KindConflict) {
		t.Fatalf("expected stale committer to be rejected with Conflict, got %v", err)
	}

	if err := s.CommitConversion(ctx, 1, "worker-recovered", "camera_1/videos/1_video.mp4", 60); err != nil {
		t.Fatalf("recovering worker commit: %v", err)
	}
}

func TestInsertLogBatch_WatermarkContiguous(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustRegisterAndCreate(t, s)

	now := time.Now()
	lines := []LogLineInput{
		{Source: "camera_1", Timestamp: now, Level: "INFO", Message: "a"},
		{Source: "camera_1", Timestamp: now, Level: "WARNING", Message: "b"},
		{Source: "central", Timestamp: now, Level: "ERROR", Message: "c"},
	}

	startID, count, err := s.InsertLogBatch(ctx, lines)
	if err != nil {
		t.Fatalf("insert batch: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 accepted, got %d", count)
	}

	since, err := s.QueryLogsSinceID(ctx, startID-1, LogFilter{Source: "all", Levels: []string{"INFO", "WARNING", "ERROR"}}, 100)
	if err != nil {
		t.Fatalf("query since: %v", err)
	}
	if len(since) != 3 {
		t.Fatalf("expected exactly 3 lines since watermark, got %d", len(since))
	}
	for i, l := range since {
		if l.ID != startID+int64(i) {
			t.Fatalf("expected ascending contiguous ids, got %d at index %d (start=%d)", l.ID, i, startID)
		}
	}
}

func mustRegisterAndCreate(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.RegisterCamera(ctx, "camera_1", "Front Door", "Entry", "192.168.1.201"); err != nil {
		t.Fatalf("register camera: %v", err)
	}
	ts, _ := time.Parse(time.RFC3339, "2025-11-26T14:30:22Z")
	if _, err := s.CreateEvent(ctx, "camera_1", ts, 187.5, nil); err != nil {
		t.Fatalf("create event: %v", err)
	}
}
