package store

import (
	"context"
	"strings"
	"time"
)

// LogLineInput is one line of an ingest batch, pre-validated by the
// validation layer before it ever reaches the Store.
type LogLineInput struct {
	Source    string
	Timestamp time.Time
	Level     string
	Message   string
}

// InsertLogBatch inserts every line in one transaction: all-or-nothing, so
// a caller's watermark (the returned starting ID) is never left pointing
// at a partially-ingested batch.
func (s *Store) InsertLogBatch(ctx context.Context, lines []LogLineInput) (startID int64, count int, err error) {
	if len(lines) == 0 {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, newUnavailable("begin log batch insert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO log_lines (source, timestamp, level, message) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, newUnavailable("prepare log insert", err)
	}
	defer stmt.Close()

	var firstID int64
	for i, line := range lines {
		res, err := stmt.ExecContext(ctx, line.Source, formatTime(line.Timestamp), line.Level, line.Message)
		if err != nil {
			return 0, 0, newUnavailable("insert log line", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, 0, newUnavailable("read log line id", err)
		}
		if i == 0 {
			firstID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, newUnavailable("commit log batch insert", err)
	}
	return firstID, len(lines), nil
}

// LogFilter narrows a QueryLogs call.
type LogFilter struct {
	Source         string // exact source, or "" / "all" for no filter
	Levels         []string
	TimestampStart *time.Time
	TimestampEnd   *time.Time
}

// QueryLogs returns log lines matching filter, ordered newest-first unless
// oldestFirst is set, with ID as the tiebreaker so pagination stays stable
// under concurrent inserts.
func (s *Store) QueryLogs(ctx context.Context, filter LogFilter, page Page, oldestFirst bool) ([]*LogLine, int, error) {
	where, args := buildLogWhere(filter)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM log_lines"+where, args...).Scan(&total); err != nil {
		return nil, 0, newUnavailable("count logs", err)
	}

	order := "DESC"
	if oldestFirst {
		order = "ASC"
	}
	limit, offset := page.Clamp()
	query := logSelectCols + where + " ORDER BY timestamp " + order + ", id " + order + " LIMIT ? OFFSET ?"
	queryArgs := append(append([]interface{}{}, args...), limit, offset)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, 0, newUnavailable("query logs", err)
	}
	defer rows.Close()

	var lines []*LogLine
	for rows.Next() {
		l, err := scanLogLine(rows)
		if err != nil {
			return nil, 0, newUnavailable("scan log line", err)
		}
		lines = append(lines, l)
	}
	return lines, total, rows.Err()
}

// QueryLogsSinceID returns up to limit log lines with ID strictly greater
// than watermark, honoring filter, in ascending ID order, so the caller can
// tail the log without polling all records.
func (s *Store) QueryLogsSinceID(ctx context.Context, watermark int64, filter LogFilter, limit int) ([]*LogLine, error) {
	where, args := buildLogWhere(filter)
	idClause := "id > ?"
	if where == "" {
		where = " WHERE " + idClause
	} else {
		where += " AND " + idClause
	}
	args = append(args, watermark)

	page := Page{Limit: limit}
	clampedLimit, _ := page.Clamp()
	query := logSelectCols + where + " ORDER BY id ASC LIMIT ?"
	args = append(args, clampedLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newUnavailable("query logs since id", err)
	}
	defer rows.Close()

	var lines []*LogLine
	for rows.Next() {
		l, err := scanLogLine(rows)
		if err != nil {
			return nil, newUnavailable("scan log line", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func buildLogWhere(f LogFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Source != "" && f.Source != "all" {
		clauses = append(clauses, "source = ?")
		args = append(args, f.Source)
	}
	if len(f.Levels) > 0 {
		placeholders := make([]string, len(f.Levels))
		for i, lvl := range f.Levels {
			placeholders[i] = "?"
			args = append(args, lvl)
		}
		clauses = append(clauses, "level IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.TimestampStart != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, formatTime(*f.TimestampStart))
	}
	if f.TimestampEnd != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, formatTime(*f.TimestampEnd))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const logSelectCols = `SELECT id, source, timestamp, level, message FROM log_lines`

func scanLogLine(r rowScanner) (*LogLine, error) {
	var l LogLine
	var ts string
	if err := r.Scan(&l.ID, &l.Source, &ts, &l.Level, &l.Message); err != nil {
		return nil, err
	}
	t, err := parseTime(ts)
	if err != nil {
		return nil, err
	}
	l.Timestamp = t
	return &l, nil
}
