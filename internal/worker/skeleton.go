// Package worker implements the shared claim/guard/work/commit/fail loop
// that the Conversion, Optimization, and AI workers each specialize.
package worker

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/artifact"
	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/metrics"
	"github.com/sentrygrid/camcoord/internal/store"
)

// Outcome tags a single claimed event's terminal result for metrics and logging.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeFailed    Outcome = "failed"
	OutcomeReleased  Outcome = "released"
)

// Job is the per-worker specialization the Skeleton drives. Process is
// handed one already-claimed event and must itself run the guard step,
// perform the transformation, and call the Store commit/fail/release that
// matches its own sub-state column — the Skeleton only owns the claim loop
// and the poll cadence, not the per-worker Store verbs.
type Job interface {
	// Name identifies the worker for logs and metrics labels.
	Name() string
	// Claim atomically selects up to batchSize candidate events.
	Claim(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*store.Event, error)
	// Process runs guard+work+commit/fail/release for one claimed event and
	// reports the outcome. It must never return with the claim left dangling.
	Process(ctx context.Context, ev *store.Event, claimant string) Outcome
}

// Skeleton runs a Job's poll loop until its context is canceled. Batch
// size, reclaim horizon, and poll cadence are re-read from Holder on every
// iteration, so a SIGHUP-triggered config reload changes in-flight worker
// behavior without a restart.
type Skeleton struct {
	Job      Job
	Claimant string
	Holder   *config.Holder
	// Store, if set, receives one append-only worker_runs row per poll
	// iteration that claimed at least one event. Left nil in tests that
	// don't care about the run log.
	Store  *store.Store
	Logger zerolog.Logger
}

// NewSkeleton wires a Job into a Skeleton with a freshly generated claimant
// identity, ready to Run. Tuning (batch size, reclaim horizon, poll idle)
// is read from holder on every poll rather than captured at construction.
func NewSkeleton(job Job, holder *config.Holder) *Skeleton {
	return &Skeleton{
		Job:      job,
		Claimant: NewClaimantID(job.Name()),
		Holder:   holder,
		Logger:   log.WithComponent(job.Name()),
	}
}

// Run loops claim->process until ctx is canceled. A poll that claims
// nothing backs off up to the live PollIdle; a poll that claims at least
// one event resets the backoff and loops immediately, since more work may
// be queued.
func (s *Skeleton) Run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = s.Holder.Get().Workers.PollIdle()
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.2

	name := s.Job.Name()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w := s.Holder.Get().Workers
		bo.MaxInterval = w.PollIdle()

		claimed, err := s.Job.Claim(ctx, s.Claimant, w.BatchSize, w.ReclaimHorizon())
		if err != nil {
			s.Logger.Error().Str(log.FieldEvent, "worker.claim_failed").Err(err).Msg("claim batch failed")
			if !sleepWithContext(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		metrics.RecordClaim(name, len(claimed))
		if len(claimed) == 0 {
			if !sleepWithContext(ctx, bo.NextBackOff()) {
				return
			}
			continue
		}

		bo.Reset()
		runStart := time.Now()
		var committed, failed, released int
		for _, ev := range claimed {
			start := time.Now()
			outcome := s.Job.Process(ctx, ev, s.Claimant)
			metrics.WorkerWorkDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			metrics.RecordCommit(name, string(outcome))
			s.Logger.Info().
				Str(log.FieldEvent, "worker.event_processed").
				Int64(log.FieldEventID, ev.ID).
				Str("outcome", string(outcome)).
				Msg("event processed")

			switch outcome {
			case OutcomeCommitted:
				committed++
			case OutcomeFailed:
				failed++
			case OutcomeReleased:
				released++
			}
		}
		s.recordRun(ctx, runStart, len(claimed), committed, failed, released)
	}
}

// recordRun appends the iteration's outcome to the worker_runs table, if a
// Store was wired in. Logged at warn and otherwise ignored on failure: a
// missing run record is not worth stalling the poll loop over.
func (s *Skeleton) recordRun(ctx context.Context, start time.Time, claimed, committed, failed, released int) {
	if s.Store == nil {
		return
	}
	run := store.WorkerRun{
		Worker:         s.Job.Name(),
		ClaimedCount:   claimed,
		CommittedCount: committed,
		FailedCount:    failed,
		ReleasedCount:  released,
		Duration:       time.Since(start),
		StartedAt:      start,
	}
	if err := s.Store.RecordWorkerRun(ctx, run); err != nil {
		s.Logger.Warn().Str(log.FieldEvent, "worker.run_record_failed").Err(err).Msg("failed to record worker run")
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// guardQuiescent resolves relPath under root and reports whether it is
// present, non-empty, and aged past quiescence. A missing or not-yet-settled
// file is not an error — it just means the caller should release the claim
// and let a later poll pick the event back up.
func guardQuiescent(root string, relPath *string, quiescence time.Duration) (bool, string, error) {
	if relPath == nil || *relPath == "" {
		return false, "", nil
	}
	if !artifact.IsSafeRelative(*relPath) {
		return false, "", nil
	}
	abs := artifact.Root(root, *relPath)
	ok, err := artifact.Quiescent(abs, quiescence)
	return ok, abs, err
}
