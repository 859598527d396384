package worker

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// NewClaimantID builds a stable-enough per-process identity string for the
// claim_holder column: {worker}:{host}:{pid}:{random}. The random suffix lets two
// processes racing to start on the same host in the same instant (e.g. a
// crash-restart loop) still hold distinct claims.
func NewClaimantID(workerName string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return fmt.Sprintf("%s:%s:%d:%s", workerName, host, os.Getpid(), uuid.New().String()[:8])
}
