package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

// ReadDone returns done_queue rows with done_at strictly after since,
// ordered by done_at then id.
func (s *Store) ReadDone(ctx context.Context, since time.Time) ([]queue.DoneEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, cause, done_at
		FROM done_queue
		WHERE done_at > ?
		ORDER BY done_at ASC, id ASC
	`, toMicros(since))
	if err != nil {
		return nil, fmt.Errorf("read done_queue: %w", err)
	}
	defer rows.Close()

	var out []queue.DoneEntry
	for rows.Next() {
		var d queue.DoneEntry
		var rec, us int64
		if err := rows.Scan(&d.ID, &rec, &d.Cause, &us); err != nil {
			return nil, fmt.Errorf("scan done_queue: %w", err)
		}
		d.RecordID = change.RecordID(rec)
		d.DoneAt = fromMicros(us)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate done_queue: %w", err)
	}
	return out, nil
}

// InsertDone appends a row to done_queue and returns its id. The indexer
// owns this table in production; ilsfeed writes to it only from tests and
// the simulate command.
func (s *Store) InsertDone(ctx context.Context, rec change.RecordID, cause string, doneAt time.Time) (int64, error) {
	var id int64
	err := s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO done_queue (record_id, cause, done_at) VALUES (?, ?, ?)`,
			int64(rec), cause, toMicros(doneAt))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("write done_queue: %w", err)
	}
	return id, nil
}
