package ingest_test

import (
	"context"
	"testing"
	"time"

	"benchtail/internal/ingest"
	"benchtail/internal/logging"
	"benchtail/internal/store"
	"benchtail/internal/tail"
	"benchtail/internal/testsupport"
)

func measurement(ts, channel string, value float64) tail.Measurement {
	return tail.Measurement{
		Timestamp: ts,
		Source:    "iso",
		Channel:   channel,
		Value:     value,
		Origin:    "AutoExportTrace_iso 2024-06-01.csv",
	}
}

func TestAddCommitsAtRowThreshold(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ing := ingest.New(st, logging.NewNop(), ingest.Policy{Rows: 2, Hold: time.Hour}, nil)

	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 0 {
		t.Fatalf("batch should be uncommitted after one row, got %d persisted", total)
	}

	if err := ing.Add(ctx, measurement("t0", "ChB", 2.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, err = st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 2 {
		t.Fatalf("row threshold should commit the batch, got %d persisted", total)
	}

	stats := ing.Stats()
	if stats.Attempted != 2 || stats.Written != 2 || stats.Batches != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAddCommitsAfterHoldDuration(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ing := ingest.New(st, logging.NewNop(), ingest.Policy{Rows: 1000, Hold: 0}, nil)

	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("zero hold should commit immediately, got %d persisted", total)
	}
}

func TestDuplicateMeasurementPersistsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ing := ingest.New(st, logging.NewNop(), ingest.Policy{Rows: 1, Hold: time.Hour}, nil)

	// The same row twice, as a poll replay after truncation would produce.
	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}

	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("duplicate must not persist twice, got %d", total)
	}

	stats := ing.Stats()
	if stats.Attempted != 2 || stats.Written != 1 {
		t.Fatalf("stats should separate attempted from written: %+v", stats)
	}
}

func TestCloseFlushesPartialBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ing := ingest.New(st, logging.NewNop(), ingest.Policy{Rows: 100, Hold: time.Hour}, nil)
	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ing.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("Close must commit the partial batch, got %d", total)
	}
}

func TestProgressCallbackSeparatesInsertedFromIgnored(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var inserted, ignored int
	progress := func(_ store.Sample, wasInserted bool) {
		if wasInserted {
			inserted++
		} else {
			ignored++
		}
	}
	ing := ingest.New(st, logging.NewNop(), ingest.Policy{Rows: 1, Hold: time.Hour}, progress)

	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}

	if inserted != 1 || ignored != 1 {
		t.Fatalf("progress callback counts wrong: inserted=%d ignored=%d", inserted, ignored)
	}
}

func TestSetPolicySwitchesThresholds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ing := ingest.New(st, logging.NewNop(), ingest.BackfillPolicy(cfg), nil)
	ing.SetPolicy(ingest.Policy{Rows: 1, Hold: time.Hour})

	if err := ing.Add(ctx, measurement("t0", "ChA", 1.0)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("switched policy should commit per row, got %d", total)
	}
}
