package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RegisterCamera upserts a camera by stable string. On conflict, every
// field other than the stable string is overwritten (last-write-wins) and
// the resulting record is returned.
func (s *Store) RegisterCamera(ctx context.Context, stableString, displayName, location, networkAddr string) (*Camera, error) {
	now := formatTime(time.Now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cameras (stable_string, display_name, location, network_address, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'offline', ?, ?)
		ON CONFLICT(stable_string) DO UPDATE SET
			display_name = excluded.display_name,
			location = excluded.location,
			network_address = excluded.network_address,
			updated_at = excluded.updated_at
	`, stableString, displayName, location, networkAddr, now, now)
	if err != nil {
		return nil, newUnavailable("register camera", err)
	}

	return s.GetCamera(ctx, stableString)
}

// GetCamera fetches a camera by stable string.
func (s *Store) GetCamera(ctx context.Context, stableString string) (*Camera, error) {
	row := s.db.QueryRowContext(ctx, cameraSelectCols+" WHERE stable_string = ?", stableString)
	cam, err := scanCamera(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newNotFound("camera not found: " + stableString)
		}
		return nil, newUnavailable("get camera", err)
	}
	return cam, nil
}

// ListCameras returns every camera ordered by stable string.
func (s *Store) ListCameras(ctx context.Context) ([]*Camera, error) {
	rows, err := s.db.QueryContext(ctx, cameraSelectCols+" ORDER BY stable_string ASC")
	if err != nil {
		return nil, newUnavailable("list cameras", err)
	}
	defer rows.Close()

	var cameras []*Camera
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			return nil, newUnavailable("scan camera row", err)
		}
		cameras = append(cameras, cam)
	}
	return cameras, rows.Err()
}

const cameraSelectCols = `
	SELECT id, stable_string, display_name, location, network_address, status, created_at, updated_at, last_heartbeat
	FROM cameras
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCamera(r rowScanner) (*Camera, error) {
	var c Camera
	var createdAt, updatedAt string
	var lastHeartbeat sql.NullString

	if err := r.Scan(&c.ID, &c.StableString, &c.DisplayName, &c.Location, &c.NetworkAddr,
		&c.Status, &createdAt, &updatedAt, &lastHeartbeat); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastHeartbeat.Valid {
		t, err := parseTime(lastHeartbeat.String)
		if err != nil {
			return nil, err
		}
		c.LastHeartbeat = &t
	}
	return &c, nil
}
