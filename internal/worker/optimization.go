package worker

import (
	"context"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/artifact"
	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/worker/transcoder"
)

// OptimizationJob re-encodes an already-converted MP4 to a smaller-size
// profile and overwrites video_mp4_path with the optimized file's relative
// path once conversion has unconditionally committed. Quiescence and
// per-event budget are read from Holder on every Process call, so a
// SIGHUP reload retunes them without a restart.
type OptimizationJob struct {
	Store       *store.Store
	Transcoder  *transcoder.Runner
	StorageRoot string
	Holder      *config.Holder
	Logger      zerolog.Logger
}

func (j *OptimizationJob) Name() string { return "optimization" }

func (j *OptimizationJob) Claim(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*store.Event, error) {
	return j.Store.ClaimOptimizationBatch(ctx, claimant, batchSize, reclaimHorizon)
}

func (j *OptimizationJob) Process(ctx context.Context, ev *store.Event, claimant string) Outcome {
	w := j.Holder.Get().Workers
	ready, absMP4, err := guardQuiescent(j.StorageRoot, ev.VideoMP4Path, w.Quiescence())
	if err != nil {
		j.logErr(ev, "guard check failed", err)
		return j.release(ctx, ev, claimant)
	}
	if !ready {
		return j.release(ctx, ev, claimant)
	}

	workCtx, cancel := context.WithTimeout(ctx, w.PerEventTimeout())
	defer cancel()

	relOptimized := artifact.OptimizedPath(*ev.VideoMP4Path)
	absOptimized := artifact.Root(j.StorageRoot, relOptimized)

	pending, err := renameio.NewPendingFile(absOptimized)
	if err != nil {
		j.logErr(ev, "create pending optimized file failed", err)
		return j.fail(ctx, ev, claimant)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := j.Transcoder.Optimize(workCtx, absMP4, pending.Name()); err != nil {
		j.logErr(ev, "optimize failed", err)
		return j.fail(ctx, ev, claimant)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		j.logErr(ev, "atomic replace of optimized mp4 failed", err)
		return j.fail(ctx, ev, claimant)
	}

	if err := j.Store.CommitOptimization(ctx, ev.ID, claimant, relOptimized); err != nil {
		j.logErr(ev, "commit optimization failed", err)
		return OutcomeFailed
	}
	return OutcomeCommitted
}

func (j *OptimizationJob) fail(ctx context.Context, ev *store.Event, claimant string) Outcome {
	if err := j.Store.FailOptimization(ctx, ev.ID, claimant); err != nil {
		j.logErr(ev, "fail optimization failed", err)
	}
	return OutcomeFailed
}

func (j *OptimizationJob) release(ctx context.Context, ev *store.Event, claimant string) Outcome {
	if err := j.Store.ReleaseClaim(ctx, ev.ID, claimant); err != nil {
		j.logErr(ev, "release claim failed", err)
	}
	return OutcomeReleased
}

func (j *OptimizationJob) logErr(ev *store.Event, msg string, err error) {
	j.Logger.Warn().Str(log.FieldEvent, "optimization."+msg).Int64(log.FieldEventID, ev.ID).Err(err).Msg(msg)
}
