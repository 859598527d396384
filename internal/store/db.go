package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, no cgo

	"github.com/sentrygrid/camcoord/internal/config"
)

const schemaVersion = 1

// Store is the relational system of record for cameras, events, and log
// lines. It is the only shared mutable state in the system: every mutation
// performed by the API or by a worker goes through one of its methods.
type Store struct {
	db *sql.DB
}

// Open connects to the configured storage backend, applies PRAGMAs suited
// to a single-writer-many-reader SQLite deployment, wires the connection
// pool from config, and runs schema migration.
func Open(ctx context.Context, storage config.StorageConfig, pool config.PoolConfig) (*Store, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		storage.Database, pool.AcquireTimeout().Milliseconds(),
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, newUnavailable("open storage", err)
	}

	db.SetMaxOpenConns(pool.MinConnections + pool.MaxOverflow)
	db.SetMaxIdleConns(pool.MinConnections)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, pool.AcquireTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, newUnavailable("ping storage", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping probes the Store with a trivial, bounded-time query, used by the
// health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return newUnavailable("health probe failed", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	var current int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	schema := `
	CREATE TABLE IF NOT EXISTS cameras (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		stable_string   TEXT NOT NULL UNIQUE,
		display_name    TEXT NOT NULL,
		location        TEXT NOT NULL DEFAULT '',
		network_address TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'offline',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL,
		last_heartbeat  TEXT
	);

	CREATE TABLE IF NOT EXISTS events (
		id                      INTEGER PRIMARY KEY AUTOINCREMENT,
		camera_stable_string    TEXT NOT NULL REFERENCES cameras(stable_string) ON DELETE CASCADE,
		event_timestamp         TEXT NOT NULL,
		motion_score            REAL NOT NULL,
		confidence              REAL,
		status                  TEXT NOT NULL DEFAULT 'processing',

		image_a_path            TEXT,
		image_b_path            TEXT,
		thumbnail_path          TEXT,
		video_h264_path         TEXT,
		video_mp4_path          TEXT,
		video_duration          REAL,

		image_a_transferred     INTEGER NOT NULL DEFAULT 0,
		image_b_transferred     INTEGER NOT NULL DEFAULT 0,
		thumbnail_transferred   INTEGER NOT NULL DEFAULT 0,
		video_h264_transferred  INTEGER NOT NULL DEFAULT 0,

		mp4_conversion_status   TEXT NOT NULL DEFAULT 'pending',
		mp4_converted_at        TEXT,
		claim_holder            TEXT,
		claimed_at               TEXT,

		ai_processed            INTEGER NOT NULL DEFAULT 0,
		ai_processed_at         TEXT,
		ai_person_detected      INTEGER,
		ai_confidence           REAL,
		ai_objects              TEXT,
		ai_description          TEXT,
		ai_phrase               TEXT,
		ai_error                TEXT,

		created_at              TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_camera_ts ON events(camera_stable_string, event_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_mp4_status ON events(mp4_conversion_status);
	CREATE INDEX IF NOT EXISTS idx_events_ai_processed ON events(ai_processed);

	CREATE TABLE IF NOT EXISTS log_lines (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		source    TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		level     TEXT NOT NULL,
		message   TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_source_ts ON log_lines(source, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_logs_level ON log_lines(level);
	CREATE INDEX IF NOT EXISTS idx_logs_level_source_ts ON log_lines(level, source, timestamp);

	CREATE TABLE IF NOT EXISTS worker_runs (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		worker          TEXT NOT NULL,
		claimed_count   INTEGER NOT NULL,
		committed_count INTEGER NOT NULL,
		failed_count    INTEGER NOT NULL,
		released_count  INTEGER NOT NULL,
		duration_ms     INTEGER NOT NULL,
		started_at      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_worker_runs_worker_started ON worker_runs(worker, started_at DESC);
	`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// timeLayout is fixed-width (nine fractional digits, always UTC "Z") so
// stored timestamps compare and sort in time order as plain strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
