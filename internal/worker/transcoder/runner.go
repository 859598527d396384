// Package transcoder wraps the ffmpeg binary for the Conversion and
// Optimization workers: rewrapping H.264 elementary streams into MP4 with
// fast-start metadata, and re-encoding an existing MP4 to a smaller profile.
package transcoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

// Runner invokes ffmpeg as a subprocess. It is safe for concurrent use;
// each call starts its own process bound to the caller's context.
type Runner struct {
	BinaryPath string
}

// NewRunner returns a Runner for binaryPath, defaulting to "ffmpeg" on the
// caller's PATH when unset.
func NewRunner(binaryPath string) *Runner {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Runner{BinaryPath: binaryPath}
}

// DefaultDuration is the fixed fallback used when neither the produced MP4
// nor the camera-supplied value yields a usable duration.
const DefaultDuration = 60 * time.Second

// Remux rewraps an H.264 elementary stream at inputPath into an MP4 file at
// outputPath with fast-start metadata (moov atom moved to the front so
// playback can begin before the full file has downloaded), copying the
// video stream without re-encoding.
func (r *Runner) Remux(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "warning",
		"-f", "h264", "-i", inputPath,
		"-c:v", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
	return r.run(ctx, args)
}

// Optimize re-encodes an existing MP4 to a smaller-size profile, writing
// outputPath distinct from inputPath so the Optimization Worker never
// truncates the file Conversion already committed while re-encoding it.
func (r *Runner) Optimize(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "warning",
		"-i", inputPath,
		"-c:v", "libx264", "-preset", "medium", "-crf", "26",
		"-c:a", "aac", "-b:a", "96k",
		"-movflags", "+faststart",
		outputPath,
	}
	return r.run(ctx, args)
}

func (r *Runner) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.BinaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLines(stderr.String(), 10))
	}
	return nil
}

var durationPattern = regexp.MustCompile(`Duration:\s*(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

// ProbeDuration extracts the duration of the media at path by asking
// ffmpeg to open it without transcoding; ffmpeg always prints the input's
// Duration header to stderr, even though the command itself exits non-zero
// for lack of an output target.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, r.BinaryPath, "-hide_banner", "-i", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run() // expected to fail: no output was requested

	m := durationPattern.FindStringSubmatch(stderr.String())
	if m == nil {
		return 0, fmt.Errorf("transcoder: no Duration header found for %s", path)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	centis, _ := strconv.Atoi(m[4])
	d := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(centis)*10*time.Millisecond
	return d, nil
}

func lastLines(s string, n int) string {
	scanner := bufio.NewScanner(bytes.NewReader([]byte(s)))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	var out bytes.Buffer
	for _, l := range lines {
		io.WriteString(&out, l)
		out.WriteByte('\n')
	}
	return out.String()
}
