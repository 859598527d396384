package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/store"
)

func testHolder(t *testing.T, w config.WorkersConfig) *config.Holder {
	t.Helper()
	return config.NewHolder(config.AppConfig{Workers: w}, nil, "")
}

type fakeJob struct {
	name      string
	batches   [][]*store.Event
	callCount int32
	processed int32
}

func (f *fakeJob) Name() string { return f.name }

func (f *fakeJob) Claim(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*store.Event, error) {
	i := int(atomic.AddInt32(&f.callCount, 1)) - 1
	if i >= len(f.batches) {
		return nil, nil
	}
	return f.batches[i], nil
}

func (f *fakeJob) Process(ctx context.Context, ev *store.Event, claimant string) Outcome {
	atomic.AddInt32(&f.processed, 1)
	return OutcomeCommitted
}

func TestSkeleton_RunProcessesClaimedBatchesThenIdles(t *testing.T) {
	job := &fakeJob{
		name: "fake",
		batches: [][]*store.Event{
			{{ID: 1}, {ID: 2}},
			{{ID: 3}},
		},
	}
	holder := testHolder(t, config.WorkersConfig{
		BatchSize:             5,
		ReclaimHorizonSeconds: 60,
		PollIdleSeconds:       0.05,
	})
	s := NewSkeleton(job, holder)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := atomic.LoadInt32(&job.processed); got != 3 {
		t.Fatalf("expected 3 events processed, got %d", got)
	}
}

func TestSkeleton_StopsOnContextCancel(t *testing.T) {
	job := &fakeJob{name: "idle"}
	holder := testHolder(t, config.WorkersConfig{
		BatchSize:             5,
		ReclaimHorizonSeconds: 60,
		PollIdleSeconds:       0.01,
	})
	s := NewSkeleton(job, holder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
