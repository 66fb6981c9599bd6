package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"benchtail/internal/config"
)

// DedupeMode names the active duplicate-safe insert mechanism.
type DedupeMode string

const (
	// DedupeUniqueIndex means the identity index exists and inserts use
	// INSERT OR IGNORE.
	DedupeUniqueIndex DedupeMode = "unique-index"
	// DedupeConditionalInsert means the identity index could not be created
	// (legacy duplicate data) and inserts check existence in-statement.
	DedupeConditionalInsert DedupeMode = "conditional-insert"
)

// Sample is one persisted measurement row.
type Sample struct {
	ID        int64
	Timestamp string
	Source    string
	Channel   string
	Value     float64
	Origin    string
}

// Store manages sample persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	dedupe DedupeMode
}

// Open initializes or connects to the samples database, applies migrations,
// and selects the duplicate-safe insert path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.Paths.DatabasePath
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	store.dedupe = store.ensureIdentityIndex(context.Background())

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Dedupe returns the active duplicate-safe insert mechanism.
func (s *Store) Dedupe() DedupeMode {
	return s.dedupe
}

// ensureIdentityIndex attempts to create the unique index backing INSERT OR
// IGNORE. Creation fails over legacy data that already contains duplicates;
// the store then falls back to the portable conditional insert.
func (s *Store) ensureIdentityIndex(ctx context.Context) DedupeMode {
	_, err := s.db.ExecContext(ctx,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_samples_identity ON samples(timestamp, source, channel)")
	if err != nil {
		return DedupeConditionalInsert
	}
	return DedupeUniqueIndex
}

// Begin starts a batch transaction for the ingester.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	return tx, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertSampleTx writes one sample through the active duplicate-safe path
// inside a batch transaction. It reports whether a row was actually written;
// false means the identity (timestamp, source, channel) already existed.
func (s *Store) InsertSampleTx(ctx context.Context, tx *sql.Tx, sample Sample) (bool, error) {
	return s.insert(ctx, tx, sample)
}

// InsertSample writes one sample outside any batch transaction.
func (s *Store) InsertSample(ctx context.Context, sample Sample) (bool, error) {
	return s.insert(ctx, s.db, sample)
}

func (s *Store) insert(ctx context.Context, exec execer, sample Sample) (bool, error) {
	var (
		res sql.Result
		err error
	)
	switch s.dedupe {
	case DedupeConditionalInsert:
		res, err = exec.ExecContext(ctx,
			`INSERT INTO samples (timestamp, source, channel, value, origin)
             SELECT ?, ?, ?, ?, ?
             WHERE NOT EXISTS (
                 SELECT 1 FROM samples WHERE timestamp = ? AND source = ? AND channel = ?
             )`,
			sample.Timestamp, sample.Source, sample.Channel, sample.Value, nullableString(sample.Origin),
			sample.Timestamp, sample.Source, sample.Channel,
		)
	default:
		res, err = exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO samples (timestamp, source, channel, value, origin)
             VALUES (?, ?, ?, ?, ?)`,
			sample.Timestamp, sample.Source, sample.Channel, sample.Value, nullableString(sample.Origin),
		)
	}
	if err != nil {
		return false, fmt.Errorf("insert sample: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// SetAggressiveDurability relaxes the synchronous pragma for bulk backfill
// throughput. Callers opt in explicitly; RestoreDurability undoes it.
func (s *Store) SetAggressiveDurability(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = OFF"); err != nil {
		return fmt.Errorf("relax synchronous pragma: %w", err)
	}
	return nil
}

// RestoreDurability returns the synchronous pragma to its crash-safe setting.
func (s *Store) RestoreDurability(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA synchronous = NORMAL"); err != nil {
		return fmt.Errorf("restore synchronous pragma: %w", err)
	}
	return nil
}

const sampleColumns = "id, timestamp, source, channel, value, origin"

// RecentSamples returns the most recently inserted samples, optionally
// filtered by source, newest first.
func (s *Store) RecentSamples(ctx context.Context, limit int, source string) ([]*Sample, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		rows *sql.Rows
		err  error
	)
	if source == "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+sampleColumns+` FROM samples ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+sampleColumns+` FROM samples WHERE source = ? ORDER BY id DESC LIMIT ?`, source, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query recent samples: %w", err)
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		sample, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

// CountsBySource returns a count of samples grouped by source.
func (s *Store) CountsBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(1) FROM samples GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("sample counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, err
		}
		counts[source] = count
	}
	return counts, rows.Err()
}

// TotalSamples returns the number of persisted samples.
func (s *Store) TotalSamples(ctx context.Context) (int64, error) {
	var total int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return total, nil
}

func scanSample(scanner interface{ Scan(dest ...any) error }) (*Sample, error) {
	var (
		id        int64
		timestamp string
		source    string
		channel   string
		value     sql.NullFloat64
		origin    sql.NullString
	)
	if err := scanner.Scan(&id, &timestamp, &source, &channel, &value, &origin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan sample: %w", err)
	}
	return &Sample{
		ID:        id,
		Timestamp: timestamp,
		Source:    source,
		Channel:   channel,
		Value:     value.Float64,
		Origin:    origin.String,
	}, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
