package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a batch ID does not exist.
var ErrNotFound = errors.New("batch not found")

// Batch summarizes one recorded run.
type Batch struct {
	ID         string
	Endpoint   string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
}

// Outcome is one persisted session result. Order is the position in which the
// task completed.
type Outcome struct {
	TaskIndex       int
	Order           int
	Kind            string
	Error           string
	Attempts        int
	ScreenshotBytes int
	Compared        bool
	Match           bool
	StartedAt       time.Time
	Duration        time.Duration
}

// RecordBatch stores a batch and its outcomes in one transaction.
func (s *Store) RecordBatch(ctx context.Context, batch Batch, outcomes []Outcome) error {
	if strings.TrimSpace(batch.ID) == "" {
		return errors.New("record batch: id required")
	}
	return retryOnBusy(ctx, func() error {
		return s.recordBatch(ctx, batch, outcomes)
	})
}

func (s *Store) recordBatch(ctx context.Context, batch Batch, outcomes []Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, endpoint, started_at, finished_at, total, succeeded, failed)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID,
		batch.Endpoint,
		formatTime(batch.StartedAt),
		formatTime(batch.FinishedAt),
		batch.Total,
		batch.Succeeded,
		batch.Failed,
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (
            batch_id, task_index, completion_order, kind, error_message, attempts,
            screenshot_bytes, compared, matched, started_at, duration_ms
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx,
			batch.ID,
			o.TaskIndex,
			o.Order,
			o.Kind,
			nullableString(o.Error),
			o.Attempts,
			o.ScreenshotBytes,
			boolToInt(o.Compared),
			boolToInt(o.Match),
			formatTime(o.StartedAt),
			o.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert outcome %d: %w", o.TaskIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// ListBatches returns the most recent batches, newest first. A limit <= 0
// returns every batch.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	query := `SELECT id, endpoint, started_at, finished_at, total, succeeded, failed
              FROM batches ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// GetBatch returns one batch by ID, or ErrNotFound.
func (s *Store) GetBatch(ctx context.Context, id string) (Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, endpoint, started_at, finished_at, total, succeeded, failed
         FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, err
}

// Outcomes returns a batch's outcomes in completion order.
func (s *Store) Outcomes(ctx context.Context, batchID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_index, completion_order, kind, error_message, attempts,
                screenshot_bytes, compared, matched, started_at, duration_ms
         FROM outcomes WHERE batch_id = ? ORDER BY completion_order`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o          Outcome
			errMessage sql.NullString
			compared   int
			matched    int
			started    string
			durationMS int64
		)
		if err := rows.Scan(&o.TaskIndex, &o.Order, &o.Kind, &errMessage, &o.Attempts,
			&o.ScreenshotBytes, &compared, &matched, &started, &durationMS); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Error = errMessage.String
		o.Compared = compared != 0
		o.Match = matched != 0
		o.StartedAt = parseTime(started)
		o.Duration = time.Duration(durationMS) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (Batch, error) {
	var (
		b                 Batch
		started, finished string
	)
	if err := row.Scan(&b.ID, &b.Endpoint, &started, &finished, &b.Total, &b.Succeeded, &b.Failed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, err
		}
		return Batch{}, fmt.Errorf("scan batch: %w", err)
	}
	b.StartedAt = parseTime(started)
	b.FinishedAt = parseTime(finished)
	return b, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
