package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"benchtail/internal/config"
	"benchtail/internal/ingest"
	"benchtail/internal/logging"
	"benchtail/internal/store"
	"benchtail/internal/watcher"
)

// Options configures agent process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the harvesting loop and blocks until the context is canceled
// or a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}

	runStamp := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("benchtail-%s.log", runStamp))
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, uuid.NewString()))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update benchtail.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "benchtail-*.log", Exclude: []string{logPath}},
	)

	lock := flock.New(filepath.Join(cfg.Paths.LogDir, "benchtail.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another benchtail instance is already running")
	}
	defer lock.Unlock()

	pidPath := filepath.Join(cfg.Paths.LogDir, "benchtail.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open samples store", logging.Error(err))
		return err
	}
	defer st.Close()

	if st.Dedupe() == store.DedupeConditionalInsert {
		logger.Warn("identity index unavailable, using conditional inserts",
			logging.String(logging.FieldEventType, "dedupe_fallback"),
			logging.String(logging.FieldErrorHint, "existing duplicate rows block the unique index; deduplicate and restart to regain it"))
	}

	var progress ingest.ProgressFunc
	if cfg.Ingest.Progress {
		progress = func(sample store.Sample, inserted bool) {
			logger.Debug("row processed",
				logging.String(logging.FieldSource, sample.Source),
				logging.String("channel", sample.Channel),
				logging.String("timestamp", sample.Timestamp),
				logging.Bool("inserted", inserted))
		}
	}

	ing := ingest.New(st, logger, ingest.SteadyPolicy(cfg), progress)
	w := watcher.New(cfg, logger, ing)

	logger.Info("benchtail agent starting",
		logging.String(logging.FieldEventType, "agent_started"),
		logging.String("watch_dir", cfg.Paths.WatchDir),
		logging.String("database", st.Path()),
		logging.Duration("poll_interval", cfg.PollInterval()),
		logging.Bool("backfill", cfg.Watch.Backfill))

	if cfg.Watch.Backfill {
		if err := runBackfill(signalCtx, cfg, logger, st, ing, w); err != nil {
			return err
		}
	}

	runErr := w.Run(signalCtx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("watch loop failed", logging.Error(runErr))
	} else {
		runErr = nil
	}

	// The loop is stopped; flush whatever the last batch held.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := ing.Close(flushCtx); err != nil {
		logger.Error("final flush failed", logging.Error(err))
		if runErr == nil {
			runErr = err
		}
	}

	stats := ing.Stats()
	logger.Info("benchtail agent stopped",
		logging.String(logging.FieldEventType, "agent_stopped"),
		logging.Int64("rows_attempted", stats.Attempted),
		logging.Int64("rows_written", stats.Written),
		logging.Int64("batches_committed", stats.Batches))
	return runErr
}

// runBackfill drains pre-existing file contents under the backfill batch
// policy before the steady-state loop takes over.
func runBackfill(ctx context.Context, cfg *config.Config, logger *slog.Logger, st *store.Store, ing *ingest.Ingester, w *watcher.Watcher) error {
	ing.SetPolicy(ingest.BackfillPolicy(cfg))

	aggressive := cfg.Ingest.BackfillMode == config.BackfillModeAggressive
	if aggressive {
		if err := st.SetAggressiveDurability(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	if err := w.PollOnce(ctx); err != nil {
		return err
	}
	if err := ing.Flush(ctx); err != nil {
		return err
	}

	if aggressive {
		if err := st.RestoreDurability(ctx); err != nil {
			return err
		}
	}
	ing.SetPolicy(ingest.SteadyPolicy(cfg))

	stats := ing.Stats()
	logger.Info("backfill complete",
		logging.String(logging.FieldEventType, "backfill_complete"),
		logging.Int64("rows_attempted", stats.Attempted),
		logging.Int64("rows_written", stats.Written),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "benchtail.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
