// Package queue defines the downstream work queues, the upstream feedback
// queue, the cause-based routing table and a threshold batcher for writes.
//
// Queue rows are append-only. This module never updates or deletes a row it
// has written; the external indexer retires them.
package queue
