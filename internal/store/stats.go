package store

import "context"

// CameraStat is the per-camera event count shown by the stats endpoints.
type CameraStat struct {
	CameraStableString string `json:"camera_stable_string"`
	EventCount         int    `json:"event_count"`
}

// StatusStat is the per-event-status count shown by the stats endpoints.
type StatusStat struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// DailyStat is the per-calendar-day event count shown by the stats
// endpoints, bucketed on the event timestamp's UTC date.
type DailyStat struct {
	Day        string `json:"day"`
	EventCount int    `json:"event_count"`
}

// CameraStats returns event counts grouped by camera, ordered by stable
// string, independent of any pagination applied elsewhere.
func (s *Store) CameraStats(ctx context.Context) ([]CameraStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT camera_stable_string, COUNT(*)
		FROM events
		GROUP BY camera_stable_string
		ORDER BY camera_stable_string ASC
	`)
	if err != nil {
		return nil, newUnavailable("camera stats", err)
	}
	defer rows.Close()

	var stats []CameraStat
	for rows.Next() {
		var st CameraStat
		if err := rows.Scan(&st.CameraStableString, &st.EventCount); err != nil {
			return nil, newUnavailable("scan camera stat", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// StatusStats returns event counts grouped by status.
func (s *Store) StatusStats(ctx context.Context) ([]StatusStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM events
		GROUP BY status
		ORDER BY status ASC
	`)
	if err != nil {
		return nil, newUnavailable("status stats", err)
	}
	defer rows.Close()

	var stats []StatusStat
	for rows.Next() {
		var st StatusStat
		if err := rows.Scan(&st.Status, &st.Count); err != nil {
			return nil, newUnavailable("scan status stat", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// DailyStats returns event counts for the most recent days (newest first),
// capped at limit days, bucketed on the UTC date portion of event_timestamp.
func (s *Store) DailyStats(ctx context.Context, limit int) ([]DailyStat, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(event_timestamp, 1, 10) AS day, COUNT(*)
		FROM events
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, newUnavailable("daily stats", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var st DailyStat
		if err := rows.Scan(&st.Day, &st.EventCount); err != nil {
			return nil, newUnavailable("scan daily stat", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
