// Package ingest batches measurements into the store.
//
// Rows accumulate inside a lazily opened transaction and commit when either
// the row threshold or the hold duration is reached. The ingester relies on
// the store's duplicate-safe insert paths, so replaying rows after a crash
// between commits converges on exactly one persisted copy per measurement.
package ingest
