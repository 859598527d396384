package artifact

import (
	"fmt"
	"os"
	"time"
)

// Stat reports the state a worker's guard step needs: whether the file
// exists, is a regular readable file, its size, and its age.
type Stat struct {
	Exists bool
	Size   int64
	Age    time.Duration
}

// Check stats absPath and reports whether it exists and, if so, how old it
// is. It never returns an error for a missing file — that is a normal,
// expected guard-step outcome, not a failure.
func Check(absPath string) (Stat, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Stat{}, nil
		}
		return Stat{}, fmt.Errorf("stat artifact: %w", err)
	}
	if info.IsDir() {
		return Stat{}, fmt.Errorf("artifact path is a directory: %s", absPath)
	}
	return Stat{Exists: true, Size: info.Size(), Age: time.Since(info.ModTime())}, nil
}

// Quiescent reports whether the artifact at absPath exists, is non-empty,
// and has aged past the quiescence window — the guard step every worker
// runs before trusting a path the database says has arrived, covering the
// race between the uploader's flag-flip and the file actually landing on
// shared storage.
func Quiescent(absPath string, quiescence time.Duration) (bool, error) {
	stat, err := Check(absPath)
	if err != nil {
		return false, err
	}
	if !stat.Exists || stat.Size == 0 {
		return false, nil
	}
	return stat.Age >= quiescence, nil
}
