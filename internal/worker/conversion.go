package worker

import (
	"context"
	"os"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/artifact"
	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/worker/transcoder"
)

// ConversionJob rewraps an event's H.264 source into MP4 with fast-start
// metadata, extracting (or falling back to) a duration, and deletes the
// H.264 source once the MP4 is confirmed non-empty and writable. Quiescence
// and per-event budget are read from Holder on every Process call, so a
// SIGHUP reload retunes them without a restart.
type ConversionJob struct {
	Store       *store.Store
	Transcoder  *transcoder.Runner
	StorageRoot string
	Holder      *config.Holder
	Logger      zerolog.Logger
}

func (j *ConversionJob) Name() string { return "conversion" }

func (j *ConversionJob) Claim(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*store.Event, error) {
	return j.Store.ClaimConversionBatch(ctx, claimant, batchSize, reclaimHorizon)
}

func (j *ConversionJob) Process(ctx context.Context, ev *store.Event, claimant string) Outcome {
	w := j.Holder.Get().Workers
	ready, absH264, err := guardQuiescent(j.StorageRoot, ev.VideoH264Path, w.Quiescence())
	if err != nil {
		j.logErr(ev, "guard check failed", err)
		return j.releaseOrFail(ctx, ev, claimant, err)
	}
	if !ready {
		if err := j.Store.ReleaseConversionClaim(ctx, ev.ID, claimant); err != nil {
			j.logErr(ev, "release claim failed", err)
		}
		return OutcomeReleased
	}

	workCtx, cancel := context.WithTimeout(ctx, w.PerEventTimeout())
	defer cancel()

	relMP4 := artifact.DerivedMP4Path(*ev.VideoH264Path)
	absMP4 := artifact.Root(j.StorageRoot, relMP4)

	pending, err := renameio.NewPendingFile(absMP4)
	if err != nil {
		j.logErr(ev, "create pending mp4 file failed", err)
		return j.fail(ctx, ev, claimant)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := j.Transcoder.Remux(workCtx, absH264, pending.Name()); err != nil {
		j.logErr(ev, "remux failed", err)
		return j.fail(ctx, ev, claimant)
	}

	duration := j.resolveDuration(workCtx, pending.Name(), ev)

	if err := pending.CloseAtomicallyReplace(); err != nil {
		j.logErr(ev, "atomic replace of mp4 failed", err)
		return j.fail(ctx, ev, claimant)
	}

	if err := j.Store.CommitConversion(ctx, ev.ID, claimant, relMP4, duration.Seconds()); err != nil {
		j.logErr(ev, "commit conversion failed", err)
		return OutcomeFailed
	}

	j.deleteSourceIfSafe(absMP4, absH264, ev)
	return OutcomeCommitted
}

// resolveDuration extracts duration from the produced MP4, falling back to
// the camera-supplied value, then a fixed default, in that order.
func (j *ConversionJob) resolveDuration(ctx context.Context, mp4Path string, ev *store.Event) time.Duration {
	if d, err := j.Transcoder.ProbeDuration(ctx, mp4Path); err == nil && d > 0 {
		return d
	}
	if ev.VideoDuration != nil && *ev.VideoDuration > 0 {
		return time.Duration(*ev.VideoDuration * float64(time.Second))
	}
	return transcoder.DefaultDuration
}

// deleteSourceIfSafe removes the H.264 source only if the produced MP4 is
// non-empty and writable, per the post-commit retention policy; any doubt
// leaves the source in place for manual inspection.
func (j *ConversionJob) deleteSourceIfSafe(absMP4, absH264 string, ev *store.Event) {
	info, err := os.Stat(absMP4)
	if err != nil || info.Size() == 0 {
		j.logErr(ev, "mp4 missing or empty post-commit, retaining h264 source", err)
		return
	}
	f, err := os.OpenFile(absMP4, os.O_WRONLY, 0)
	if err != nil {
		j.logErr(ev, "mp4 not writable post-commit, retaining h264 source", err)
		return
	}
	_ = f.Close()

	if err := os.Remove(absH264); err != nil {
		j.logErr(ev, "failed to remove h264 source", err)
	}
}

func (j *ConversionJob) fail(ctx context.Context, ev *store.Event, claimant string) Outcome {
	if err := j.Store.FailConversion(ctx, ev.ID, claimant); err != nil {
		j.logErr(ev, "fail conversion failed", err)
	}
	return OutcomeFailed
}

func (j *ConversionJob) releaseOrFail(ctx context.Context, ev *store.Event, claimant string, cause error) Outcome {
	if err := j.Store.ReleaseConversionClaim(ctx, ev.ID, claimant); err != nil {
		j.logErr(ev, "release claim failed", err)
		return j.fail(ctx, ev, claimant)
	}
	return OutcomeReleased
}

func (j *ConversionJob) logErr(ev *store.Event, msg string, err error) {
	j.Logger.Warn().Str(log.FieldEvent, "conversion."+msg).Int64(log.FieldEventID, ev.ID).Err(err).Msg(msg)
}
