package db

import (
	"database/sql"
	"fmt"
)

// RunEvent represents a row in the run_events table.
type RunEvent struct {
	ID        int
	RunID     string
	Event     string
	Phase     string
	Attempt   int
	Detail    string
	Timestamp string
}

// LogRunEvent inserts a run event.
func (d *DB) LogRunEvent(runID, event, phase string, attempt int, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO run_events (run_id, event, phase, attempt, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, event, phase, attempt, detail,
	)
	if err != nil {
		return fmt.Errorf("log run event: %w", err)
	}
	return nil
}

// RunEvents returns all events for a run, oldest first.
func (d *DB) RunEvents(runID string) ([]RunEvent, error) {
	rows, err := d.conn.Query(
		`SELECT id, run_id, event, phase, attempt, detail, timestamp
		 FROM run_events WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get run events: %w", err)
	}
	defer rows.Close()

	var events []RunEvent
	for rows.Next() {
		e, err := scanRunEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// LastRunEvent returns the most recent event for a run, or nil if none exist.
func (d *DB) LastRunEvent(runID string) (*RunEvent, error) {
	row := d.conn.QueryRow(
		`SELECT id, run_id, event, phase, attempt, detail, timestamp
		 FROM run_events WHERE run_id = ? ORDER BY id DESC LIMIT 1`,
		runID,
	)
	var e RunEvent
	var phase, detail sql.NullString
	var attempt sql.NullInt64
	err := row.Scan(&e.ID, &e.RunID, &e.Event, &phase, &attempt, &detail, &e.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last run event: %w", err)
	}
	if phase.Valid {
		e.Phase = phase.String
	}
	if attempt.Valid {
		e.Attempt = int(attempt.Int64)
	}
	if detail.Valid {
		e.Detail = detail.String
	}
	return &e, nil
}

func scanRunEvent(rows *sql.Rows) (*RunEvent, error) {
	var e RunEvent
	var phase, detail sql.NullString
	var attempt sql.NullInt64
	if err := rows.Scan(&e.ID, &e.RunID, &e.Event, &phase, &attempt, &detail, &e.Timestamp); err != nil {
		return nil, fmt.Errorf("scan run event: %w", err)
	}
	if phase.Valid {
		e.Phase = phase.String
	}
	if attempt.Valid {
		e.Attempt = int(attempt.Int64)
	}
	if detail.Valid {
		e.Detail = detail.String
	}
	return &e, nil
}
