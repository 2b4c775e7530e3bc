package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soocke/pixel-assist-go/domain/inject"
)

// Counter is the running total of one command.
type Counter struct {
	Command   string
	Count     int64
	UpdatedAt time.Time
}

// Increment adds one to the command's counter.
func (db *DB) Increment(ctx context.Context, command string) error {
	query := `
		INSERT INTO counters (command, count, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(command) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at
	`
	if _, err := db.conn.ExecContext(ctx, query, command, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}
	return nil
}

// Count returns the counter of one command, zero when never incremented.
func (db *DB) Count(ctx context.Context, command string) (int64, error) {
	var n int64
	err := db.conn.QueryRowContext(ctx, "SELECT count FROM counters WHERE command = ?", command).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}
	return n, nil
}

// Total sums every counter.
func (db *DB) Total(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, "SELECT SUM(count) FROM counters").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum counters: %w", err)
	}
	return n.Int64, nil
}

// Counters lists all counters, highest first.
func (db *DB) Counters(ctx context.Context) ([]Counter, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT command, count, updated_at FROM counters ORDER BY count DESC, command")
	if err != nil {
		return nil, fmt.Errorf("failed to query counters: %w", err)
	}
	defer rows.Close()

	var out []Counter
	for rows.Next() {
		var c Counter
		if err := rows.Scan(&c.Command, &c.Count, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan counter: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ResetCounter zeroes one command's counter, or all when command is empty.
func (db *DB) ResetCounter(ctx context.Context, command string) error {
	var err error
	if command == "" {
		_, err = db.conn.ExecContext(ctx, "DELETE FROM counters")
	} else {
		_, err = db.conn.ExecContext(ctx, "DELETE FROM counters WHERE command = ?", command)
	}
	if err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}
	return nil
}

var _ inject.CounterSink = (*DB)(nil)
