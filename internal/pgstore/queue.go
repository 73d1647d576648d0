package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/ilsfeed/internal/change"
	"github.com/roach88/ilsfeed/internal/queue"
)

const doneTable = "done_queue"

func queueTables() []string {
	out := make([]string, 0, len(queue.Names))
	for _, q := range queue.Names {
		out = append(out, q.Table())
	}
	return out
}

// buildBatches splits entries into pgx batches of at most size inserts.
func (s *Store) buildBatches(q queue.Name, entries []queue.Entry) []*pgx.Batch {
	stmt := `INSERT INTO ` + s.table(q.Table()) +
		` (record_id, cause, priority, enqueued_at) VALUES ($1, $2, $3, $4)`

	var batches []*pgx.Batch
	for i := 0; i < len(entries); i += s.batchSize {
		j := min(i+s.batchSize, len(entries))
		b := &pgx.Batch{}
		for _, e := range entries[i:j] {
			b.Queue(stmt, int64(e.RecordID), e.Cause, e.Priority, utc(e.EnqueuedAt))
		}
		batches = append(batches, b)
	}
	return batches
}

// AppendEntries inserts entries into q in one transaction. Entries are
// sent in chunks of the configured batch size, one round trip per chunk;
// a failed chunk rolls back the whole call. An empty slice is a no-op.
func (s *Store) AppendEntries(ctx context.Context, q queue.Name, entries []queue.Entry) error {
	if !q.Valid() {
		return fmt.Errorf("append entries: unknown queue %q", q)
	}
	if len(entries) == 0 {
		return nil
	}
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, b := range s.buildBatches(q, entries) {
			if err := sendBatch(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", q.Table(), err)
	}
	return nil
}

func sendBatch(ctx context.Context, tx pgx.Tx, b *pgx.Batch) error {
	br := tx.SendBatch(ctx, b)
	for k := 0; k < b.Len(); k++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

// CountEntries returns the number of rows in q.
func (s *Store) CountEntries(ctx context.Context, q queue.Name) (int, error) {
	if !q.Valid() {
		return 0, fmt.Errorf("count entries: unknown queue %q", q)
	}
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM `+s.table(q.Table())).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", q.Table(), err)
	}
	return int(n), nil
}

// ReadDone returns done_queue rows with done_at strictly after since,
// ordered by done_at.
func (s *Store) ReadDone(ctx context.Context, since time.Time) ([]queue.DoneEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, record_id, cause, done_at
		FROM `+s.table(doneTable)+`
		WHERE done_at > $1
		ORDER BY done_at ASC, id ASC`, utc(since))
	if err != nil {
		return nil, fmt.Errorf("read done_queue: %w", err)
	}
	defer rows.Close()

	var out []queue.DoneEntry
	for rows.Next() {
		var d queue.DoneEntry
		var rec int64
		if err := rows.Scan(&d.ID, &rec, &d.Cause, &d.DoneAt); err != nil {
			return nil, fmt.Errorf("scan done_queue: %w", err)
		}
		d.RecordID = change.RecordID(rec)
		d.DoneAt = utc(d.DoneAt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate done_queue: %w", err)
	}
	return out, nil
}
