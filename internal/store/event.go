package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CreateEvent inserts a new event row with status=processing,
// mp4_conversion_status=pending, and every artifact absent/untransferred.
func (s *Store) CreateEvent(ctx context.Context, cameraStableString string, eventTimestamp time.Time, motionScore float64, confidence *float64) (*Event, error) {
	now := time.Now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (camera_stable_string, event_timestamp, motion_score, confidence, status, mp4_conversion_status, created_at)
		VALUES (?, ?, ?, ?, 'processing', 'pending', ?)
	`, cameraStableString, formatTime(eventTimestamp), motionScore, confidence, formatTime(now))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, newConstraintViolation("camera does not exist: "+cameraStableString, err)
		}
		return nil, newUnavailable("create event", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, newUnavailable("read event id", err)
	}
	return s.GetEvent(ctx, id)
}

// GetEvent fetches an event by ID.
func (s *Store) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := s.db.QueryRowContext(ctx, eventSelectCols+" WHERE id = ?", id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newNotFound(fmt.Sprintf("event not found: %d", id))
		}
		return nil, newUnavailable("get event", err)
	}
	return ev, nil
}

// EventFilter narrows a ListEvents call. Zero values mean "no filter" on
// that dimension.
type EventFilter struct {
	CameraStableString string
	TimestampStart      *time.Time
	TimestampEnd        *time.Time
	Status              string
	MP4Status           string
	AIProcessed         *bool
}

// ListEvents returns events newest-first by event timestamp, matching
// filter, with (limit, offset) pagination. It also returns the total
// number of rows matching filter, independent of the page returned.
func (s *Store) ListEvents(ctx context.Context, filter EventFilter, page Page) ([]*Event, int, error) {
	where, args := buildEventWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM events" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, newUnavailable("count events", err)
	}

	limit, offset := page.Clamp()
	query := eventSelectCols + where + " ORDER BY event_timestamp DESC, id DESC LIMIT ? OFFSET ?"
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, newUnavailable("list events", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, newUnavailable("scan event row", err)
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

func buildEventWhere(f EventFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.CameraStableString != "" {
		clauses = append(clauses, "camera_stable_string = ?")
		args = append(args, f.CameraStableString)
	}
	if f.TimestampStart != nil {
		clauses = append(clauses, "event_timestamp >= ?")
		args = append(args, formatTime(*f.TimestampStart))
	}
	if f.TimestampEnd != nil {
		clauses = append(clauses, "event_timestamp <= ?")
		args = append(args, formatTime(*f.TimestampEnd))
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.MP4Status != "" {
		clauses = append(clauses, "mp4_conversion_status = ?")
		args = append(args, f.MP4Status)
	}
	if f.AIProcessed != nil {
		clauses = append(clauses, "ai_processed = ?")
		args = append(args, boolToInt(*f.AIProcessed))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// NeighborIDs returns the previous and next event IDs (by ID order),
// scoped to an optional camera filter, used by the viewer for navigation.
func (s *Store) NeighborIDs(ctx context.Context, id int64, cameraStableString string) (previousID, nextID *int64, err error) {
	camClause := ""
	args := []interface{}{id}
	if cameraStableString != "" {
		camClause = " AND camera_stable_string = ?"
	}

	prevArgs := append(append([]interface{}{}, args...))
	if cameraStableString != "" {
		prevArgs = append(prevArgs, cameraStableString)
	}
	var prev sql.NullInt64
	err = s.db.QueryRowContext(ctx, "SELECT MAX(id) FROM events WHERE id < ?"+camClause, prevArgs...).Scan(&prev)
	if err != nil {
		return nil, nil, newUnavailable("neighbor previous id", err)
	}

	nextArgs := append(append([]interface{}{}, args...))
	if cameraStableString != "" {
		nextArgs = append(nextArgs, cameraStableString)
	}
	var next sql.NullInt64
	err = s.db.QueryRowContext(ctx, "SELECT MIN(id) FROM events WHERE id > ?"+camClause, nextArgs...).Scan(&next)
	if err != nil {
		return nil, nil, newUnavailable("neighbor next id", err)
	}

	if prev.Valid {
		v := prev.Int64
		previousID = &v
	}
	if next.Valid {
		v := next.Int64
		nextID = &v
	}
	return previousID, nextID, nil
}

// UpdateFileStatus writes one artifact's path and transfer flag. Idempotent:
// resending the same path is a no-op success; a conflicting path for the
// same artifact returns a Conflict error. For video_h264, also ensures the
// MP4 status is at least pending so the Conversion Worker can pick it up.
func (s *Store) UpdateFileStatus(ctx context.Context, id int64, artifact, path string, duration *float64) (*Event, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, newUnavailable("begin update file status", err)
	}
	defer tx.Rollback()

	ev, err := scanEvent(tx.QueryRowContext(ctx, eventSelectCols+" WHERE id = ? ", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newNotFound(fmt.Sprintf("event not found: %d", id))
		}
		return nil, newUnavailable("read event for file status update", err)
	}

	pathCol, flagCol, existingPath, alreadySet := artifactColumns(ev, artifact)
	if pathCol == "" {
		return nil, newConstraintViolation("unknown artifact: "+artifact, nil)
	}

	if alreadySet {
		if existingPath == path {
			tx.Rollback()
			return ev, nil
		}
		return nil, newConflict(fmt.Sprintf("artifact %s already has a different path", artifact))
	}

	// mp4_conversion_status already defaults to 'pending' at creation time
	// (see CreateEvent), so receiving the video_h264 path never needs to
	// advance it here; the Conversion Worker's claim predicate is what
	// actually picks the event up.
	setClauses := fmt.Sprintf("%s = ?, %s = 1", pathCol, flagCol)
	args := []interface{}{path}
	if artifact == "video_h264" && duration != nil {
		setClauses += ", video_duration = ?"
		args = append(args, *duration)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, "UPDATE events SET "+setClauses+" WHERE id = ?", args...); err != nil {
		return nil, newUnavailable("apply file status update", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, newUnavailable("commit file status update", err)
	}
	return s.GetEvent(ctx, id)
}

func artifactColumns(ev *Event, artifact string) (pathCol, flagCol, existingPath string, alreadySet bool) {
	switch artifact {
	case "image_a":
		if ev.ImageAPath != nil {
			existingPath, alreadySet = *ev.ImageAPath, true
		}
		return "image_a_path", "image_a_transferred", existingPath, alreadySet
	case "image_b":
		if ev.ImageBPath != nil {
			existingPath, alreadySet = *ev.ImageBPath, true
		}
		return "image_b_path", "image_b_transferred", existingPath, alreadySet
	case "thumbnail":
		if ev.ThumbnailPath != nil {
			existingPath, alreadySet = *ev.ThumbnailPath, true
		}
		return "thumbnail_path", "thumbnail_transferred", existingPath, alreadySet
	case "video_h264":
		if ev.VideoH264Path != nil {
			existingPath, alreadySet = *ev.VideoH264Path, true
		}
		return "video_h264_path", "video_h264_transferred", existingPath, alreadySet
	default:
		return "", "", "", false
	}
}

// eventStatusTerminal reports whether status is one no further transition
// may leave.
func eventStatusTerminal(status string) bool {
	return status == "complete" || status == "interrupted" || status == "failed"
}

// UpdateEventStatus transitions an event's status to target. Only legal
// when the current status is "processing"; returns Conflict if already
// terminal.
func (s *Store) UpdateEventStatus(ctx context.Context, id int64, target string) (*Event, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET status = ? WHERE id = ? AND status = 'processing'
	`, target, id)
	if err != nil {
		return nil, newUnavailable("update event status", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, newUnavailable("read rows affected", err)
	}
	if affected == 0 {
		existing, getErr := s.GetEvent(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if eventStatusTerminal(existing.Status) {
			return nil, newConflict(fmt.Sprintf("event %d already terminal: %s", id, existing.Status))
		}
		return nil, newUnavailable("update event status: no rows affected", nil)
	}
	return s.GetEvent(ctx, id)
}

const eventSelectCols = `
	SELECT id, camera_stable_string, event_timestamp, motion_score, confidence, status,
		image_a_path, image_b_path, thumbnail_path, video_h264_path, video_mp4_path, video_duration,
		image_a_transferred, image_b_transferred, thumbnail_transferred, video_h264_transferred,
		mp4_conversion_status, mp4_converted_at, claim_holder, claimed_at,
		ai_processed, ai_processed_at, ai_person_detected, ai_confidence, ai_objects, ai_description, ai_phrase, ai_error,
		created_at
	FROM events
`

func scanEvent(r rowScanner) (*Event, error) {
	var e Event
	var eventTimestamp, createdAt string
	var mp4ConvertedAt, claimHolder, claimedAt, aiProcessedAt, aiObjects, aiDescription, aiPhrase, aiError sql.NullString
	var imageA, imageB, thumb, videoH264, videoMP4 sql.NullString
	var videoDuration, confidence, aiConfidence sql.NullFloat64
	var aiPersonDetected sql.NullBool
	var imgATransferred, imgBTransferred, thumbTransferred, videoTransferred, aiProcessedInt int

	if err := r.Scan(
		&e.ID, &e.CameraStableString, &eventTimestamp, &e.MotionScore, &confidence, &e.Status,
		&imageA, &imageB, &thumb, &videoH264, &videoMP4, &videoDuration,
		&imgATransferred, &imgBTransferred, &thumbTransferred, &videoTransferred,
		&e.MP4ConversionStatus, &mp4ConvertedAt, &claimHolder, &claimedAt,
		&aiProcessedInt, &aiProcessedAt, &aiPersonDetected, &aiConfidence, &aiObjects, &aiDescription, &aiPhrase, &aiError,
		&createdAt,
	); err != nil {
		return nil, err
	}

	var err error
	if e.EventTimestamp, err = parseTime(eventTimestamp); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if confidence.Valid {
		v := confidence.Float64
		e.Confidence = &v
	}
	e.ImageAPath = nullStringPtr(imageA)
	e.ImageBPath = nullStringPtr(imageB)
	e.ThumbnailPath = nullStringPtr(thumb)
	e.VideoH264Path = nullStringPtr(videoH264)
	e.VideoMP4Path = nullStringPtr(videoMP4)
	if videoDuration.Valid {
		v := videoDuration.Float64
		e.VideoDuration = &v
	}
	e.ImageATransferred = imgATransferred != 0
	e.ImageBTransferred = imgBTransferred != 0
	e.ThumbnailTransferred = thumbTransferred != 0
	e.VideoH264Transferred = videoTransferred != 0

	if mp4ConvertedAt.Valid {
		t, err := parseTime(mp4ConvertedAt.String)
		if err != nil {
			return nil, err
		}
		e.MP4ConvertedAt = &t
	}
	e.ClaimHolder = nullStringPtr(claimHolder)
	if claimedAt.Valid {
		t, err := parseTime(claimedAt.String)
		if err != nil {
			return nil, err
		}
		e.ClaimedAt = &t
	}

	e.AIProcessed = aiProcessedInt != 0
	if aiProcessedAt.Valid {
		t, err := parseTime(aiProcessedAt.String)
		if err != nil {
			return nil, err
		}
		e.AIProcessedAt = &t
	}
	if aiPersonDetected.Valid {
		v := aiPersonDetected.Bool
		e.AIPersonDetected = &v
	}
	if aiConfidence.Valid {
		v := aiConfidence.Float64
		e.AIConfidence = &v
	}
	e.AIObjects = nullStringPtr(aiObjects)
	e.AIDescription = nullStringPtr(aiDescription)
	e.AIPhrase = nullStringPtr(aiPhrase)
	e.AIError = nullStringPtr(aiError)

	return &e, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint")
}
