package testutil

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FakeRows is an in-memory pgx.Rows.
type FakeRows struct {
	data    [][]any
	idx     int
	closed  bool
	err     error
	scanErr error
	failAt  int
}

var _ pgx.Rows = (*FakeRows)(nil)

// NewFakeRows creates rows over data. Each inner slice is one row.
func NewFakeRows(data ...[]any) *FakeRows {
	return &FakeRows{data: data, idx: -1, failAt: -1}
}

// WithIterErr makes Err return err once iteration is exhausted.
func (r *FakeRows) WithIterErr(err error) *FakeRows {
	r.err = err
	return r
}

// WithScanErr makes Scan fail on row index i.
func (r *FakeRows) WithScanErr(i int, err error) *FakeRows {
	r.failAt = i
	r.scanErr = err
	return r
}

func (r *FakeRows) Close() { r.closed = true }

// Closed reports whether Close was called.
func (r *FakeRows) Closed() bool { return r.closed }

func (r *FakeRows) Err() error {
	if r.idx >= len(r.data) {
		return r.err
	}
	return nil
}

func (r *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.data)))
}

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *FakeRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	if r.idx >= len(r.data) {
		r.closed = true
		return false
	}
	return true
}

// Scan assigns the current row's values to dest, converting between
// compatible Go types.
func (r *FakeRows) Scan(dest ...any) error {
	if r.idx == r.failAt {
		return r.scanErr
	}
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan called without a current row")
	}
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan: destination %d is not a non-nil pointer", i)
		}
		sv := reflect.ValueOf(row[i])
		if !sv.IsValid() {
			return fmt.Errorf("scan: column %d is NULL", i)
		}
		target := dv.Elem()
		if !sv.Type().ConvertibleTo(target.Type()) {
			return fmt.Errorf("scan: column %d: cannot assign %T to %s", i, row[i], target.Type())
		}
		target.Set(sv.Convert(target.Type()))
	}
	return nil
}

func (r *FakeRows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.data) {
		return nil, errors.New("values called without a current row")
	}
	return r.data[r.idx], nil
}

func (r *FakeRows) RawValues() [][]byte { return nil }

func (r *FakeRows) Conn() *pgx.Conn { return nil }

// FakeQuerier returns canned rows and records the queries it receives.
type FakeQuerier struct {
	mu      sync.Mutex
	Rows    func() *FakeRows
	Err     error
	Queries []string
	Args    [][]any
}

// Query implements source.Querier.
func (q *FakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.mu.Lock()
	q.Queries = append(q.Queries, sql)
	q.Args = append(q.Args, args)
	q.mu.Unlock()
	if q.Err != nil {
		return nil, q.Err
	}
	if q.Rows == nil {
		return NewFakeRows(), nil
	}
	return q.Rows(), nil
}
