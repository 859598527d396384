package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ClaimConversionBatch atomically selects up to batchSize events whose MP4
// status is pending, whose video_h264 artifact has arrived, and whose path
// is set, then marks them processing under claimant in one statement. Rows
// already processing under a claim younger than reclaimHorizon are excluded;
// rows whose claim has gone stale are included (stale-claim recovery) and
// reassigned to claimant.
//
// This is the one claim primitive every worker iteration opens with: a
// single conditional UPDATE ... RETURNING, never a SELECT ... FOR UPDATE
// followed by a second write, so that the predicate match and the status
// flip happen atomically from the Store's perspective regardless of how
// many worker processes are polling concurrently.
func (s *Store) ClaimConversionBatch(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*Event, error) {
	staleCutoff := formatTime(time.Now().Add(-reclaimHorizon))
	now := formatTime(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'processing', claim_holder = ?, claimed_at = ?
		WHERE id IN (
			SELECT id FROM events
			WHERE video_h264_transferred = 1 AND video_h264_path IS NOT NULL
			  AND (
			        mp4_conversion_status = 'pending'
			     OR (mp4_conversion_status = 'processing' AND (claimed_at IS NULL OR claimed_at < ?))
			      )
			ORDER BY id ASC
			LIMIT ?
		)
		RETURNING `+eventReturningCols, claimant, now, staleCutoff, batchSize)
	if err != nil {
		return nil, newUnavailable("claim conversion batch", err)
	}
	defer rows.Close()
	return scanClaimedEvents(rows)
}

// ClaimOptimizationBatch atomically selects up to batchSize events whose MP4
// status is complete (conversion already committed, never mid-flight) and
// records claimant as their claim holder; the MP4 status stays complete
// while the claim is held. Optimization never runs before
// Conversion has committed: the predicate requires exactly "complete".
func (s *Store) ClaimOptimizationBatch(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*Event, error) {
	// Optimization has no intermediate "optimizing" sub-state of its own in
	// the DAG (pending->processing->complete->optimized), so claims reuse
	// claim_holder/claimed_at on rows still at "complete" and rely on the
	// claimed_at staleness check for recovery without a dedicated column.
	staleCutoff := formatTime(time.Now().Add(-reclaimHorizon))
	now := formatTime(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		UPDATE events SET claim_holder = ?, claimed_at = ?
		WHERE id IN (
			SELECT id FROM events
			WHERE mp4_conversion_status = 'complete'
			  AND (claim_holder IS NULL OR claimed_at IS NULL OR claimed_at < ?)
			ORDER BY id ASC
			LIMIT ?
		)
		RETURNING `+eventReturningCols, claimant, now, staleCutoff, batchSize)
	if err != nil {
		return nil, newUnavailable("claim optimization batch", err)
	}
	defer rows.Close()
	return scanClaimedEvents(rows)
}

// ClaimAIBatch atomically selects up to batchSize events with ai_processed
// false and both images transferred, and marks them claimed under claimant.
func (s *Store) ClaimAIBatch(ctx context.Context, claimant string, batchSize int, reclaimHorizon time.Duration) ([]*Event, error) {
	staleCutoff := formatTime(time.Now().Add(-reclaimHorizon))
	now := formatTime(time.Now())

	rows, err := s.db.QueryContext(ctx, `
		UPDATE events SET claim_holder = ?, claimed_at = ?
		WHERE id IN (
			SELECT id FROM events
			WHERE ai_processed = 0 AND image_a_transferred = 1 AND image_b_transferred = 1
			  AND (claim_holder IS NULL OR claimed_at IS NULL OR claimed_at < ?)
			ORDER BY id ASC
			LIMIT ?
		)
		RETURNING `+eventReturningCols, claimant, now, staleCutoff, batchSize)
	if err != nil {
		return nil, newUnavailable("claim ai batch", err)
	}
	defer rows.Close()
	return scanClaimedEvents(rows)
}

// ReleaseClaim clears claim_holder/claimed_at without changing any
// sub-state column, used when a worker's guard step finds the artifact not
// yet quiescent and wants the row eligible for the next poll.
func (s *Store) ReleaseClaim(ctx context.Context, id int64, claimant string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ?
	`, id, claimant)
	if err != nil {
		return newUnavailable("release claim", err)
	}
	return nil
}

// ReleaseConversionClaim reverts a conversion claim back to pending, used
// when the guard step finds the artifact not yet quiescent.
func (s *Store) ReleaseConversionClaim(ctx context.Context, id int64, claimant string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'pending', claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ? AND mp4_conversion_status = 'processing'
	`, id, claimant)
	if err != nil {
		return newUnavailable("release conversion claim", err)
	}
	return nil
}

// CommitConversion writes the conversion result and advances MP4 status to
// complete, but only if claimant still holds the claim (detects the
// stale-claim-stolen race described in the reclaim-recovery contract).
func (s *Store) CommitConversion(ctx context.Context, id int64, claimant, mp4Path string, duration float64) error {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'complete', video_mp4_path = ?, video_duration = ?,
			mp4_converted_at = ?, claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ? AND mp4_conversion_status = 'processing'
	`, mp4Path, duration, now, id, claimant)
	if err != nil {
		return newUnavailable("commit conversion", err)
	}
	return requireAffected(res, fmt.Sprintf("conversion commit for event %d: claim no longer held by %s", id, claimant))
}

// FailConversion latches MP4 status to failed. Never leaves a claim
// dangling even on transformation error.
func (s *Store) FailConversion(ctx context.Context, id int64, claimant string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'failed', claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ?
	`, id, claimant)
	if err != nil {
		return newUnavailable("fail conversion", err)
	}
	return nil
}

// CommitOptimization overwrites video_mp4_path with the optimized file's
// relative path and advances MP4 status to optimized.
func (s *Store) CommitOptimization(ctx context.Context, id int64, claimant, optimizedPath string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'optimized', video_mp4_path = ?, claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ? AND mp4_conversion_status = 'complete'
	`, optimizedPath, id, claimant)
	if err != nil {
		return newUnavailable("commit optimization", err)
	}
	return requireAffected(res, fmt.Sprintf("optimization commit for event %d: claim no longer held by %s", id, claimant))
}

// FailOptimization latches MP4 status to failed.
func (s *Store) FailOptimization(ctx context.Context, id int64, claimant string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET mp4_conversion_status = 'failed', claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ?
	`, id, claimant)
	if err != nil {
		return newUnavailable("fail optimization", err)
	}
	return nil
}

// AIResult bundles the fields the AI Worker writes atomically exactly once.
type AIResult struct {
	PersonDetected *bool
	Confidence     *float64
	Objects        *string
	Description    *string
	Phrase         *string
	Error          *string
}

// CommitAI writes the AI lifecycle latch and result fields in one
// statement: ai_processed flips true exactly once and is never reverted.
func (s *Store) CommitAI(ctx context.Context, id int64, claimant string, result AIResult) error {
	now := formatTime(time.Now())
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET ai_processed = 1, ai_processed_at = ?,
			ai_person_detected = ?, ai_confidence = ?, ai_objects = ?, ai_description = ?, ai_phrase = ?, ai_error = ?,
			claim_holder = NULL, claimed_at = NULL
		WHERE id = ? AND claim_holder = ? AND ai_processed = 0
	`, now, result.PersonDetected, result.Confidence, result.Objects, result.Description, result.Phrase, result.Error, id, claimant)
	if err != nil {
		return newUnavailable("commit ai result", err)
	}
	return requireAffected(res, fmt.Sprintf("ai commit for event %d: claim no longer held by %s", id, claimant))
}

func requireAffected(res sql.Result, conflictMsg string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return newUnavailable("read rows affected", err)
	}
	if affected == 0 {
		return newConflict(conflictMsg)
	}
	return nil
}

const eventReturningCols = `
	id, camera_stable_string, event_timestamp, motion_score, confidence, status,
	image_a_path, image_b_path, thumbnail_path, video_h264_path, video_mp4_path, video_duration,
	image_a_transferred, image_b_transferred, thumbnail_transferred, video_h264_transferred,
	mp4_conversion_status, mp4_converted_at, claim_holder, claimed_at,
	ai_processed, ai_processed_at, ai_person_detected, ai_confidence, ai_objects, ai_description, ai_phrase, ai_error,
	created_at
`

func scanClaimedEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, newUnavailable("scan claimed event", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
