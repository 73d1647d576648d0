package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetWatermark returns the named watermark. ok is false when the watermark
// has never been set.
func (s *Store) GetWatermark(ctx context.Context, name string) (time.Time, bool, error) {
	var us int64
	err := s.db.QueryRowContext(ctx,
		`SELECT ts_micros FROM watermarks WHERE name = ?`, name).Scan(&us)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark %q: %w", name, err)
	}
	return fromMicros(us), true, nil
}

// SetWatermark durably stores the named watermark, replacing any previous
// value. The write is committed before SetWatermark returns.
func (s *Store) SetWatermark(ctx context.Context, name string, ts time.Time) error {
	err := s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO watermarks (name, ts_micros, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				ts_micros = excluded.ts_micros,
				updated_at = excluded.updated_at
		`, name, toMicros(ts), toMicros(time.Now()))
		return err
	})
	if err != nil {
		return fmt.Errorf("write watermark %q: %w", name, err)
	}
	return nil
}

// ListWatermarks returns every stored watermark keyed by name.
func (s *Store) ListWatermarks(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, ts_micros FROM watermarks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var us int64
		if err := rows.Scan(&name, &us); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		out[name] = fromMicros(us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watermarks: %w", err)
	}
	return out, nil
}
