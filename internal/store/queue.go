package store

import (
	"context"
	"fmt"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

// AppendEntries inserts entries into the table backing q in a single
// transaction. An empty slice is a no-op.
//
// The only retry is of the whole transaction on SQLITE_BUSY or
// SQLITE_LOCKED (see withRetry), which means another connection held the
// lock. Any other failure is returned at once and the calling cycle
// aborts.
func (s *Store) AppendEntries(ctx context.Context, q queue.Name, entries []queue.Entry) error {
	if !q.Valid() {
		return fmt.Errorf("append entries: unknown queue %q", q)
	}
	if len(entries) == 0 {
		return nil
	}

	// Table name comes from the closed queue.Names set, never from input.
	stmt := fmt.Sprintf(
		`INSERT INTO %s (record_id, cause, priority, enqueued_at) VALUES (?, ?, ?, ?)`,
		q.Table())

	err := s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		prep, err := tx.PrepareContext(ctx, stmt)
		if err != nil {
			return err
		}
		defer prep.Close()

		for _, e := range entries {
			if _, err := prep.ExecContext(ctx,
				int64(e.RecordID), e.Cause, e.Priority, toMicros(e.EnqueuedAt)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", q.Table(), err)
	}
	return nil
}

// ReadEntries returns every entry in q in insertion order.
func (s *Store) ReadEntries(ctx context.Context, q queue.Name) ([]queue.Entry, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("read entries: unknown queue %q", q)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT record_id, cause, priority, enqueued_at FROM %s ORDER BY id`, q.Table()))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", q.Table(), err)
	}
	defer rows.Close()

	var out []queue.Entry
	for rows.Next() {
		var rec, us int64
		var e queue.Entry
		if err := rows.Scan(&rec, &e.Cause, &e.Priority, &us); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Table(), err)
		}
		e.RecordID = change.RecordID(rec)
		e.EnqueuedAt = fromMicros(us)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Table(), err)
	}
	return out, nil
}

// CountEntries returns the number of rows in q.
func (s *Store) CountEntries(ctx context.Context, q queue.Name) (int, error) {
	if !q.Valid() {
		return 0, fmt.Errorf("count entries: unknown queue %q", q)
	}
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, q.Table())).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table(), err)
	}
	return n, nil
}
