package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const watermarkTable = "ilsfeed_watermarks"

// GetWatermark returns the named watermark; ok is false when unset.
func (s *Store) GetWatermark(ctx context.Context, name string) (time.Time, bool, error) {
	var ts time.Time
	err := s.db.QueryRow(ctx,
		`SELECT ts FROM `+s.table(watermarkTable)+` WHERE name = $1`, name).Scan(&ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read watermark %q: %w", name, err)
	}
	return utc(ts), true, nil
}

// SetWatermark upserts the named watermark.
func (s *Store) SetWatermark(ctx context.Context, name string, ts time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO `+s.table(watermarkTable)+` (name, ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET ts = EXCLUDED.ts, updated_at = now()`,
		name, utc(ts))
	if err != nil {
		return fmt.Errorf("write watermark %q: %w", name, err)
	}
	return nil
}

// ListWatermarks returns every stored watermark keyed by name.
func (s *Store) ListWatermarks(ctx context.Context) (map[string]time.Time, error) {
	rows, err := s.db.Query(ctx, `SELECT name, ts FROM `+s.table(watermarkTable)+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list watermarks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var name string
		var ts time.Time
		if err := rows.Scan(&name, &ts); err != nil {
			return nil, fmt.Errorf("scan watermark: %w", err)
		}
		out[name] = utc(ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watermarks: %w", err)
	}
	return out, nil
}
