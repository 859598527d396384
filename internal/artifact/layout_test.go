package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRelativePath_MatchesFilesystemContract(t *testing.T) {
	ts, _ := time.Parse(time.RFC3339, "2025-11-26T14:30:22Z")

	tests := []struct {
		kind Kind
		want string
	}{
		{KindImageA, "camera_1/pictures/1_20251126_143022_a.jpg"},
		{KindImageB, "camera_1/pictures/1_20251126_143022_b.jpg"},
		{KindThumbnail, "camera_1/thumbs/1_20251126_143022_thumb.jpg"},
		{KindVideoH264, "camera_1/videos/1_20251126_143022_video.h264"},
		{KindVideoMP4, "camera_1/videos/1_20251126_143022_video.mp4"},
	}

	for _, tt := range tests {
		got := RelativePath("camera_1", 1, ts, tt.kind)
		if got != tt.want {
			t.Errorf("kind %s: got %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestDerivedMP4Path(t *testing.T) {
	got := DerivedMP4Path("camera_1/videos/1_20251126_143022_video.h264")
	want := "camera_1/videos/1_20251126_143022_video.mp4"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIsSafeRelative(t *testing.T) {
	tests := []struct {
		path string
		safe bool
	}{
		{"camera_1/pictures/1_a.jpg", true},
		{"/camera_1/pictures/1_a.jpg", false},
		{"camera_1/../etc/passwd", false},
		{"", false},
		{"camera_1/./pictures/1_a.jpg", true},
	}
	for _, tt := range tests {
		if got := IsSafeRelative(tt.path); got != tt.safe {
			t.Errorf("IsSafeRelative(%q) = %v, want %v", tt.path, got, tt.safe)
		}
	}
}

func TestQuiescent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "video.h264")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	quiescent, err := Quiescent(path, 0)
	if err != nil {
		t.Fatalf("quiescent check: %v", err)
	}
	if !quiescent {
		t.Fatalf("expected quiescent with zero window")
	}

	quiescent, err = Quiescent(path, time.Hour)
	if err != nil {
		t.Fatalf("quiescent check: %v", err)
	}
	if quiescent {
		t.Fatalf("expected not quiescent with a long window on a freshly written file")
	}
}

func TestQuiescent_MissingFile(t *testing.T) {
	quiescent, err := Quiescent(filepath.Join(t.TempDir(), "missing.jpg"), 0)
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	if quiescent {
		t.Fatalf("expected not quiescent for missing file")
	}
}
