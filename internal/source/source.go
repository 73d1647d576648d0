package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/ilsfeed/internal/change"
)

// Querier is the query surface a source needs. *pgxpool.Pool and *pgx.Conn
// both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Source detects changed catalog records since a watermark.
type Source interface {
	// Name identifies the source in configuration, logs and metrics.
	Name() string

	// Detect returns every record changed after since, with the cause this
	// source stands for. It fails as a whole or not at all.
	Detect(ctx context.Context, q Querier, since time.Time) (change.ChangeSet, error)
}

// sqlSource runs one query returning (record_id, changed_at) rows.
type sqlSource struct {
	name  string
	cause change.Cause
	query string
}

// NewSQLSource creates a source from a query that takes the watermark as
// $1 and returns (record_id bigint, changed_at timestamptz) rows.
func NewSQLSource(name string, cause change.Cause, query string) Source {
	return &sqlSource{name: name, cause: cause, query: query}
}

func (s *sqlSource) Name() string { return s.name }

func (s *sqlSource) Detect(ctx context.Context, q Querier, since time.Time) (change.ChangeSet, error) {
	rows, err := q.Query(ctx, s.query, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.name, err)
	}
	defer rows.Close()

	set := change.ChangeSet{}
	for rows.Next() {
		var (
			id int64
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", s.name, err)
		}
		set.Add(change.RecordID(id), change.Change{Cause: s.cause, ObservedAt: at.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", s.name, err)
	}
	return set, nil
}

// Source names.
const (
	NameItemStatus   = "item-status"
	NameItemRecord   = "item-record"
	NameReserves     = "reserves"
	NameOrders       = "orders"
	NameSerialIssues = "serial-issues"
)

var registry = map[string]func() Source{
	NameItemStatus:   ItemStatus,
	NameItemRecord:   ItemRecord,
	NameReserves:     Reserves,
	NameOrders:       Orders,
	NameSerialIssues: SerialIssues,
}

// Names returns the registered source names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByName returns a new instance of the named source.
func ByName(name string) (Source, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (want one of %v)", name, Names())
	}
	return ctor(), nil
}

// All returns one instance of every registered source, ordered by name.
func All() []Source {
	out := make([]Source, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n]())
	}
	return out
}

// Select resolves a list of names. An empty list selects every source.
func Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return All(), nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]Source, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		s, err := ByName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
