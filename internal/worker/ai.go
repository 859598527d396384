package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentrygrid/camcoord/internal/config"
	"github.com/sentrygrid/camcoord/internal/log"
	"github.com/sentrygrid/camcoord/internal/store"
	"github.com/sentrygrid/camcoord/internal/validation"
	"github.com/sentrygrid/camcoord/internal/worker/aiclient"
)

// AICircuitBreakerThreshold and AICircuitBreakerReset bound how many
// consecutive vision/text failures open the breaker, and how long it stays
// open before allowing a half-open probe. Neither is currently surfaced as
// config; both are conservative fixed values rather than a hot-reloadable
// knob, matching the spec's "only workers tuning" hot-reload scope.
const (
	AICircuitBreakerThreshold = 5
	AICircuitBreakerReset     = 30 * time.Second
)

// AIJob submits an event's two images to an external vision+text model
// host and records the resulting description. A failed call is retried
// within one Process call, with a capped exponential sleep between
// attempts, up to the configured retry budget; exhausting the budget
// latches ai_processed=true with ai_error set and no description, so the
// event is never reattempted. The claim is released only when an image is
// not yet quiescent or cannot be read.
// Quiescence, per-event budget, and retry budget are read from Holder on
// every Process call, so a SIGHUP reload retunes them without a restart.
type AIJob struct {
	Store       *store.Store
	Client      *aiclient.Client
	Breaker     *aiclient.CircuitBreaker
	StorageRoot string
	Holder      *config.Holder
	Logger      zerolog.Logger
}

func (j *AIJob) Name() string { return "ai" }

func (j *AIJob) Claim(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*store.Event, error) {
	return j.Store.ClaimAIBatch(ctx, claimant, batchSize, reclaimHorizon)
}

func (j *AIJob) Process(ctx context.Context, ev *store.Event, claimant string) Outcome {
	w := j.Holder.Get().Workers
	readyA, absA, err := guardQuiescent(j.StorageRoot, ev.ImageAPath, w.Quiescence())
	if err != nil || !readyA {
		return j.release(ctx, ev, claimant)
	}
	readyB, absB, err := guardQuiescent(j.StorageRoot, ev.ImageBPath, w.Quiescence())
	if err != nil || !readyB {
		return j.release(ctx, ev, claimant)
	}

	imageA, err := os.ReadFile(absA)
	if err != nil {
		return j.release(ctx, ev, claimant)
	}
	imageB, err := os.ReadFile(absB)
	if err != nil {
		return j.release(ctx, ev, claimant)
	}

	budget := w.AIRetryBudget
	if budget < 1 {
		budget = 1
	}

	var (
		vision aiclient.VisionResult
		text   aiclient.TextResult
		lastErr error
	)
	for attempt := 0; attempt < budget; attempt++ {
		workCtx, cancel := context.WithTimeout(ctx, w.PerEventTimeout())
		lastErr = j.Breaker.Execute(func() error {
			v, err := j.Client.AnalyzeImages(workCtx, imageA, imageB)
			if err != nil {
				return err
			}
			t, err := j.Client.Describe(workCtx, v)
			if err != nil {
				return err
			}
			vision, text = v, t
			return nil
		})
		cancel()
		if lastErr == nil {
			break
		}
		j.logErr(ev, fmt.Sprintf("ai attempt %d/%d failed", attempt+1, budget), lastErr)
		if attempt < budget-1 {
			time.Sleep(backoffDelay(attempt))
		}
	}

	if lastErr != nil {
		return j.commitExhausted(ctx, ev, claimant, lastErr)
	}

	phrase := text.Phrase
	if len(phrase) > validation.PhraseMaxLen {
		phrase = phrase[:validation.PhraseMaxLen]
	}
	result := store.AIResult{
		PersonDetected: &vision.PersonDetected,
		Confidence:     &vision.Confidence,
		Objects:        joinObjects(vision.Objects),
		Description:    &text.Description,
		Phrase:         &phrase,
	}
	if err := j.Store.CommitAI(ctx, ev.ID, claimant, result); err != nil {
		j.logErr(ev, "commit ai result failed", err)
		return OutcomeFailed
	}
	return OutcomeCommitted
}

// commitExhausted latches ai_processed=true with ai_error set and no
// description once the retry budget is exhausted, so the event is never
// reattempted by a later poll.
func (j *AIJob) commitExhausted(ctx context.Context, ev *store.Event, claimant string, cause error) Outcome {
	msg := cause.Error()
	result := store.AIResult{Error: &msg}
	if err := j.Store.CommitAI(ctx, ev.ID, claimant, result); err != nil {
		j.logErr(ev, "commit exhausted ai result failed", err)
		return OutcomeFailed
	}
	return OutcomeFailed
}

func (j *AIJob) release(ctx context.Context, ev *store.Event, claimant string) Outcome {
	if err := j.Store.ReleaseClaim(ctx, ev.ID, claimant); err != nil {
		j.logErr(ev, "release claim failed", err)
	}
	return OutcomeReleased
}

func (j *AIJob) logErr(ev *store.Event, msg string, err error) {
	j.Logger.Warn().Str(log.FieldEvent, "ai."+msg).Int64(log.FieldEventID, ev.ID).Err(err).Msg(msg)
}

func joinObjects(objects []string) *string {
	if len(objects) == 0 {
		return nil
	}
	s := ""
	for i, o := range objects {
		if i > 0 {
			s += ","
		}
		s += o
	}
	return &s
}

func backoffDelay(attempt int) time.Duration {
	d := 200 * time.Millisecond
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > 5*time.Second {
			return 5 * time.Second
		}
	}
	return d
}
