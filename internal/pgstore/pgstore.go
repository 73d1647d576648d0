package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultBatchSize is the number of statements queued per pgx.Batch.
const DefaultBatchSize = 200

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PoolConfig controls how OpenPool builds a connection pool.
type PoolConfig struct {
	DSN      string
	MaxConns int
	// ViaBouncer switches to the simple protocol, which transaction-mode
	// poolers such as PgBouncer require.
	ViaBouncer bool
}

// OpenPool parses cfg.DSN and opens a pool. The pool is pinged before it
// is returned.
func OpenPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 2
	}
	pcfg.MaxConns = int32(maxConns)
	if cfg.ViaBouncer {
		pcfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Store keeps ilsfeed state in PostgreSQL.
type Store struct {
	db        DB
	schema    string
	batchSize int
}

// Option configures a Store.
type Option func(*Store)

// WithSchema sets the schema holding the ilsfeed tables.
func WithSchema(schema string) Option {
	return func(s *Store) {
		if schema != "" {
			s.schema = schema
		}
	}
}

// WithBatchSize sets how many inserts are queued per pgx.Batch.
func WithBatchSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// New wraps db. Call EnsureSchema before first use on a fresh database.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, schema: "public", batchSize: DefaultBatchSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// table returns the quoted, schema-qualified name of t.
func (s *Store) table(t string) string {
	return pgx.Identifier{s.schema, t}.Sanitize()
}

// EnsureSchema creates the ilsfeed tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *Store) schemaStatements() []string {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.table(watermarkTable) + ` (
			name       TEXT PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, q := range queueTables() {
		stmts = append(stmts, `CREATE TABLE IF NOT EXISTS `+s.table(q)+` (
			id          BIGSERIAL PRIMARY KEY,
			record_id   BIGINT NOT NULL,
			cause       TEXT NOT NULL,
			priority    INTEGER NOT NULL DEFAULT 0,
			enqueued_at TIMESTAMPTZ NOT NULL
		)`)
	}
	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS `+s.table(doneTable)+` (
			id        BIGSERIAL PRIMARY KEY,
			record_id BIGINT NOT NULL,
			cause     TEXT NOT NULL,
			done_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS done_queue_done_at_idx ON `+s.table(doneTable)+` (done_at)`,
	)
	return stmts
}

func utc(t time.Time) time.Time { return t.UTC() }
