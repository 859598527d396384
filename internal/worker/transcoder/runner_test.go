package transcoder

import (
	"testing"
	"time"
)

func TestDurationPattern(t *testing.T) {
	tests := []struct {
		line string
		want time.Duration
		ok   bool
	}{
		{"Duration: 00:01:23.45, start: 0.000000, bitrate: 512 kb/s", 83450 * time.Millisecond, true},
		{"Duration: 00:00:00.00, start: 0.000000", 0, true},
		{"no duration line here", 0, false},
	}
	for _, tt := range tests {
		m := durationPattern.FindStringSubmatch(tt.line)
		if (m != nil) != tt.ok {
			t.Fatalf("line %q: match=%v, want %v", tt.line, m != nil, tt.ok)
		}
	}
}

func TestNewRunner_DefaultsBinaryPath(t *testing.T) {
	r := NewRunner("")
	if r.BinaryPath != "ffmpeg" {
		t.Fatalf("expected default binary path ffmpeg, got %q", r.BinaryPath)
	}
	r2 := NewRunner("/usr/local/bin/ffmpeg")
	if r2.BinaryPath != "/usr/local/bin/ffmpeg" {
		t.Fatalf("expected explicit binary path preserved, got %q", r2.BinaryPath)
	}
}

func TestLastLines_Truncates(t *testing.T) {
	input := "a\nb\nc\nd\ne\n"
	got := lastLines(input, 2)
	want := "d\ne\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
