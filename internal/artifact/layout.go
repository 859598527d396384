// Package artifact implements the filesystem path conventions shared by the
// API and all three workers: where a given event's files live relative to
// the storage root, and how to tell whether a file has finished being
// written before a worker trusts it.
package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Kind names one of the four artifact slots an event can carry.
type Kind string

const (
	KindImageA    Kind = "image_a"
	KindImageB    Kind = "image_b"
	KindThumbnail Kind = "thumbnail"
	KindVideoH264 Kind = "video_h264"
	KindVideoMP4  Kind = "video_mp4"
)

const timestampLayout = "20060102_150405"

// RelativePath builds the storage-root-relative path an artifact of kind k
// belonging to eventID on cameraStable, timestamped at ts, is expected at:
//
//	{camera_stable}/pictures/{event_id}_{YYYYMMDD_HHMMSS}_a.jpg
//	{camera_stable}/pictures/{event_id}_{YYYYMMDD_HHMMSS}_b.jpg
//	{camera_stable}/thumbs/{event_id}_{YYYYMMDD_HHMMSS}_thumb.jpg
//	{camera_stable}/videos/{event_id}_{YYYYMMDD_HHMMSS}_video.h264
//	{camera_stable}/videos/{event_id}_{YYYYMMDD_HHMMSS}_video.mp4
func RelativePath(cameraStable string, eventID int64, ts time.Time, k Kind) string {
	stamp := ts.UTC().Format(timestampLayout)
	switch k {
	case KindImageA:
		return fmt.Sprintf("%s/pictures/%d_%s_a.jpg", cameraStable, eventID, stamp)
	case KindImageB:
		return fmt.Sprintf("%s/pictures/%d_%s_b.jpg", cameraStable, eventID, stamp)
	case KindThumbnail:
		return fmt.Sprintf("%s/thumbs/%d_%s_thumb.jpg", cameraStable, eventID, stamp)
	case KindVideoH264:
		return fmt.Sprintf("%s/videos/%d_%s_video.h264", cameraStable, eventID, stamp)
	case KindVideoMP4:
		return fmt.Sprintf("%s/videos/%d_%s_video.mp4", cameraStable, eventID, stamp)
	default:
		return ""
	}
}

// DerivedMP4Path rewrites an H.264 relative path to its MP4 sibling by
// extension change, as the Conversion Worker's commit step does.
func DerivedMP4Path(h264RelPath string) string {
	ext := filepath.Ext(h264RelPath)
	return strings.TrimSuffix(h264RelPath, ext) + ".mp4"
}

// OptimizedPath derives the optimized-profile sibling of an already-produced
// MP4 relative path, keeping the same directory and base name with a
// "_opt" suffix so the Optimization Worker never collides with the
// Conversion Worker's original output while it is re-encoding.
func OptimizedPath(mp4RelPath string) string {
	ext := filepath.Ext(mp4RelPath)
	base := strings.TrimSuffix(mp4RelPath, ext)
	return base + "_opt" + ext
}

// IsSafeRelative reports whether rel is a valid artifact path: not
// absolute, no ".." anywhere, and still local after filepath.Clean. rel
// need not already be in clean form ("a/./b" is accepted).
func IsSafeRelative(rel string) bool {
	if rel == "" || filepath.IsAbs(rel) {
		return false
	}
	if strings.Contains(rel, "..") {
		return false
	}
	return filepath.IsLocal(filepath.Clean(rel))
}

// Root resolves a storage-root-relative path to an absolute filesystem path
// under root. Callers must have already validated rel with IsSafeRelative.
func Root(root, rel string) string {
	return filepath.Join(root, filepath.Clean(rel))
}
