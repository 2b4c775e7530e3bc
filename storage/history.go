package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/soocke/pixel-assist-go/domain/inject"
)

// Injection is one stored send.
type Injection struct {
	ID         int64
	Timestamp  time.Time
	Command    string
	Text       string
	Success    bool
	Verified   bool
	DurationMs int64
	Error      string
}

// Record stores one send outcome.
func (db *DB) Record(ctx context.Context, e inject.Entry) error {
	query := `
		INSERT INTO injections (timestamp, command, text, success, verified, duration_ms, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	var errMsg sql.NullString
	if e.Error != "" {
		errMsg = sql.NullString{String: e.Error, Valid: true}
	}
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := db.conn.ExecContext(ctx, query,
		at.UTC(), e.Command, e.Text, e.OK, e.Verified, e.Duration.Milliseconds(), errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to save injection: %w", err)
	}
	return nil
}

// Recent returns the newest sends first.
func (db *DB) Recent(ctx context.Context, limit int) ([]Injection, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, timestamp, command, text, success, verified, duration_ms, error_message
		FROM injections
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query injections: %w", err)
	}
	defer rows.Close()

	var out []Injection
	for rows.Next() {
		var in Injection
		var errMsg sql.NullString
		err := rows.Scan(&in.ID, &in.Timestamp, &in.Command, &in.Text, &in.Success, &in.Verified, &in.DurationMs, &errMsg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan injection: %w", err)
		}
		if errMsg.Valid {
			in.Error = errMsg.String
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// Summary aggregates stored sends.
type Summary struct {
	Total       int
	Succeeded   int
	Verified    int
	AvgDuration time.Duration
}

// Summarize aggregates the whole history.
func (db *DB) Summarize(ctx context.Context) (Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN verified = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM injections
	`
	var s Summary
	var avg float64
	if err := db.conn.QueryRowContext(ctx, query).Scan(&s.Total, &s.Succeeded, &s.Verified, &avg); err != nil {
		return Summary{}, fmt.Errorf("failed to summarize injections: %w", err)
	}
	s.AvgDuration = time.Duration(avg * float64(time.Millisecond))
	return s, nil
}

var _ inject.HistoryRecorder = (*DB)(nil)
