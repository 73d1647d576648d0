// Package pgstore is the PostgreSQL backend for ilsfeed state.
//
// It implements the same watermark, queue and upstream surfaces as
// package store, for deployments where the queue tables live next to the
// ILS database instead of in a local SQLite file. All tables are created
// in a configurable schema (default "public"). Queue inserts are sent as
// chunked pgx batches.
package pgstore
