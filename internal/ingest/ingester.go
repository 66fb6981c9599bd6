package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"benchtail/internal/config"
	"benchtail/internal/logging"
	"benchtail/internal/store"
	"benchtail/internal/tail"
)

// Policy controls when an open batch commits.
type Policy struct {
	Rows int
	Hold time.Duration
}

// SteadyPolicy returns the batch policy for live tailing.
func SteadyPolicy(cfg *config.Config) Policy {
	return Policy{
		Rows: cfg.Ingest.BatchRows,
		Hold: time.Duration(cfg.Ingest.BatchSeconds) * time.Second,
	}
}

// BackfillPolicy returns the batch policy for draining a startup backlog.
func BackfillPolicy(cfg *config.Config) Policy {
	rows, seconds := cfg.BackfillThresholds()
	return Policy{
		Rows: rows,
		Hold: time.Duration(seconds) * time.Second,
	}
}

// ProgressFunc is invoked once per accepted measurement. The inserted flag
// is false when the measurement was already persisted.
type ProgressFunc func(sample store.Sample, inserted bool)

// Stats summarizes ingester activity for the shutdown report.
type Stats struct {
	Attempted int64
	Written   int64
	Batches   int64
}

// Ingester accumulates measurements into batched transactions.
type Ingester struct {
	store    *store.Store
	logger   *slog.Logger
	policy   Policy
	progress ProgressFunc

	tx         *sql.Tx
	pending    int
	batchStart time.Time
	stats      Stats
}

// New constructs an ingester around the given store.
func New(st *store.Store, logger *slog.Logger, policy Policy, progress ProgressFunc) *Ingester {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingester{
		store:    st,
		logger:   logging.NewComponentLogger(logger, "ingest"),
		policy:   policy,
		progress: progress,
	}
}

// SetPolicy switches the batch policy. An open batch keeps accumulating and
// commits under the new thresholds.
func (i *Ingester) SetPolicy(policy Policy) {
	i.policy = policy
}

// Add records one measurement into the current batch, opening a transaction
// if none is active, and commits when the policy thresholds are reached.
func (i *Ingester) Add(ctx context.Context, m tail.Measurement) error {
	if i.tx == nil {
		tx, err := i.store.Begin(ctx)
		if err != nil {
			return err
		}
		i.tx = tx
		i.pending = 0
		i.batchStart = time.Now()
	}

	sample := store.Sample{
		Timestamp: m.Timestamp,
		Source:    m.Source,
		Channel:   m.Channel,
		Value:     m.Value,
		Origin:    m.Origin,
	}
	inserted, err := i.store.InsertSampleTx(ctx, i.tx, sample)
	if err != nil {
		_ = i.tx.Rollback()
		i.tx = nil
		i.pending = 0
		return err
	}

	i.pending++
	i.stats.Attempted++
	if inserted {
		i.stats.Written++
	}
	if i.progress != nil {
		i.progress(sample, inserted)
	}

	if i.pending >= i.policy.Rows || time.Since(i.batchStart) >= i.policy.Hold {
		return i.Flush(ctx)
	}
	return nil
}

// Flush commits the open batch, if any.
func (i *Ingester) Flush(ctx context.Context) error {
	if i.tx == nil {
		return nil
	}
	if err := i.tx.Commit(); err != nil {
		_ = i.tx.Rollback()
		i.tx = nil
		i.pending = 0
		return fmt.Errorf("commit batch: %w", err)
	}
	i.stats.Batches++
	i.logger.Debug("batch committed",
		logging.Int("rows", i.pending),
		logging.Duration("held", time.Since(i.batchStart)))
	i.tx = nil
	i.pending = 0
	return nil
}

// Due reports whether the open batch has exceeded its hold duration. The
// watcher calls this between polls so quiet periods still commit on time.
func (i *Ingester) Due() bool {
	return i.tx != nil && time.Since(i.batchStart) >= i.policy.Hold
}

// Close commits any open batch. The ingester must not be used afterwards.
func (i *Ingester) Close(ctx context.Context) error {
	return i.Flush(ctx)
}

// Stats returns cumulative counters since construction.
func (i *Ingester) Stats() Stats {
	return i.stats
}
