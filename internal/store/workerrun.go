package store

import (
	"context"
	"time"
)

// WorkerRun is one append-only record of a Skeleton poll iteration's
// outcome, kept alongside the structured log line the run also emits so
// the run history is queryable without scraping logs.
type WorkerRun struct {
	Worker         string
	ClaimedCount   int
	CommittedCount int
	FailedCount    int
	ReleasedCount  int
	Duration       time.Duration
	StartedAt      time.Time
}

// RecordWorkerRun appends one row to worker_runs. It never returns an
// error the caller must act on beyond logging: a dropped run record isn't
// worth failing the poll loop over.
func (s *Store) RecordWorkerRun(ctx context.Context, run WorkerRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worker_runs (worker, claimed_count, committed_count, failed_count, released_count, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Worker, run.ClaimedCount, run.CommittedCount, run.FailedCount, run.ReleasedCount,
		run.Duration.Milliseconds(), formatTime(run.StartedAt))
	if err != nil {
		return newUnavailable("insert worker run", err)
	}
	return nil
}

// RecentWorkerRuns returns up to limit of the most recent runs for worker,
// newest first.
func (s *Store) RecentWorkerRuns(ctx context.Context, worker string, limit int) ([]*WorkerRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT worker, claimed_count, committed_count, failed_count, released_count, duration_ms, started_at
		FROM worker_runs
		WHERE worker = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, worker, limit)
	if err != nil {
		return nil, newUnavailable("query worker runs", err)
	}
	defer rows.Close()

	var runs []*WorkerRun
	for rows.Next() {
		var (
			r          WorkerRun
			durationMs int64
			startedAt  string
		)
		if err := rows.Scan(&r.Worker, &r.ClaimedCount, &r.CommittedCount, &r.FailedCount, &r.ReleasedCount, &durationMs, &startedAt); err != nil {
			return nil, newUnavailable("scan worker run", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		ts, err := parseTime(startedAt)
		if err != nil {
			return nil, newUnavailable("parse worker run timestamp", err)
		}
		r.StartedAt = ts
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, newUnavailable("iterate worker runs", err)
	}
	return runs, nil
}
