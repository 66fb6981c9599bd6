package store_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"benchtail/internal/store"
	"benchtail/internal/testsupport"
)

func sampleFixture() store.Sample {
	return store.Sample{
		Timestamp: "2024-06-01T12:00:00",
		Source:    "iso",
		Channel:   "ChA",
		Value:     3.5,
		Origin:    "AutoExportTrace_iso 2024-06-01.csv",
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if st.Dedupe() != store.DedupeUniqueIndex {
		t.Fatalf("fresh database should use the identity index, got %s", st.Dedupe())
	}

	total, err := st.TotalSamples(context.Background())
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 0 {
		t.Fatalf("fresh database should be empty, got %d", total)
	}
}

func TestInsertSampleIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	inserted, err := st.InsertSample(ctx, sampleFixture())
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert should write a row")
	}

	inserted, err = st.InsertSample(ctx, sampleFixture())
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Fatal("duplicate insert should be ignored")
	}

	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("exactly one row should persist, got %d", total)
	}
}

func TestInsertSampleTxCommitsBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i, channel := range []string{"ChA", "ChB", "ChC"} {
		sample := sampleFixture()
		sample.Channel = channel
		sample.Value = float64(i)
		if _, err := st.InsertSampleTx(ctx, tx, sample); err != nil {
			t.Fatalf("InsertSampleTx %s: %v", channel, err)
		}
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 rows after commit, got %d", total)
	}
}

func TestRecentSamplesFiltersBySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, source := range []string{"iso", "iso", "flow"} {
		sample := sampleFixture()
		sample.Source = source
		sample.Timestamp = sample.Timestamp + source
		if _, err := st.InsertSample(ctx, sample); err != nil {
			t.Fatalf("insert %s: %v", source, err)
		}
	}

	samples, err := st.RecentSamples(ctx, 10, "flow")
	if err != nil {
		t.Fatalf("RecentSamples: %v", err)
	}
	if len(samples) != 1 || samples[0].Source != "flow" {
		t.Fatalf("expected only flow samples, got %+v", samples)
	}

	all, err := st.RecentSamples(ctx, 10, "")
	if err != nil {
		t.Fatalf("RecentSamples all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
	if all[0].ID < all[1].ID {
		t.Fatalf("recent samples should be newest first: %+v", all)
	}
}

func TestCountsBySource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, source := range []string{"iso", "iso", "flow"} {
		sample := sampleFixture()
		sample.Source = source
		sample.Channel = "Ch" + string(rune('A'+i))
		if _, err := st.InsertSample(ctx, sample); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	counts, err := st.CountsBySource(ctx)
	if err != nil {
		t.Fatalf("CountsBySource: %v", err)
	}
	if counts["iso"] != 2 || counts["flow"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestReopenPreservesData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	if _, err := first.InsertSample(ctx, sampleFixture()); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	total, err := second.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 1 {
		t.Fatalf("reopened store should see the row, got %d", total)
	}
	if second.Dedupe() != store.DedupeUniqueIndex {
		t.Fatalf("identity index should survive reopen, got %s", second.Dedupe())
	}
}

func TestLegacyDuplicatesFallBackToConditionalInsert(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	// A database produced by the historical ingester: same identity twice,
	// which blocks creation of the unique identity index.
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.DatabasePath), 0o755); err != nil {
		t.Fatalf("mkdir db dir: %v", err)
	}
	legacy, err := sql.Open("sqlite", cfg.Paths.DatabasePath)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE samples (
            id        INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp TEXT NOT NULL,
            source    TEXT NOT NULL,
            channel   TEXT NOT NULL,
            value     REAL,
            origin    TEXT
        )`,
		`INSERT INTO samples (timestamp, source, channel, value) VALUES ('t0', 'iso', 'ChA', 1.0)`,
		`INSERT INTO samples (timestamp, source, channel, value) VALUES ('t0', 'iso', 'ChA', 1.0)`,
	}
	for _, stmt := range stmts {
		if _, err := legacy.Exec(stmt); err != nil {
			t.Fatalf("seed legacy db: %v", err)
		}
	}
	if err := legacy.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	st := testsupport.MustOpenStore(t, cfg)
	if st.Dedupe() != store.DedupeConditionalInsert {
		t.Fatalf("duplicate identities should force the conditional path, got %s", st.Dedupe())
	}

	inserted, err := st.InsertSample(ctx, sampleFixture())
	if err != nil {
		t.Fatalf("insert new identity: %v", err)
	}
	if !inserted {
		t.Fatal("new identity should be written")
	}

	// Replay through both insert entry points; neither may add a row.
	inserted, err = st.InsertSample(ctx, sampleFixture())
	if err != nil {
		t.Fatalf("replay insert: %v", err)
	}
	if inserted {
		t.Fatal("replayed identity should be skipped")
	}
	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	inserted, err = st.InsertSampleTx(ctx, tx, sampleFixture())
	if err != nil {
		t.Fatalf("replay insert in tx: %v", err)
	}
	if inserted {
		t.Fatal("replayed identity should be skipped inside a batch too")
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	total, err := st.TotalSamples(ctx)
	if err != nil {
		t.Fatalf("TotalSamples: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 2 legacy rows + 1 new, got %d", total)
	}
}

func TestDurabilityToggles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SetAggressiveDurability(ctx); err != nil {
		t.Fatalf("SetAggressiveDurability: %v", err)
	}
	if _, err := st.InsertSample(ctx, sampleFixture()); err != nil {
		t.Fatalf("insert under relaxed pragma: %v", err)
	}
	if err := st.RestoreDurability(ctx); err != nil {
		t.Fatalf("RestoreDurability: %v", err)
	}
}
