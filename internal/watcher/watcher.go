package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"benchtail/internal/config"
	"benchtail/internal/logging"
	"benchtail/internal/tail"
)

// Sink receives measurements in file order. The ingester satisfies it.
type Sink interface {
	Add(ctx context.Context, m tail.Measurement) error
	Due() bool
	Flush(ctx context.Context) error
}

// Watcher polls the watch directory and tails every matching export file.
type Watcher struct {
	cfg     *config.Config
	logger  *slog.Logger
	sink    Sink
	tracked map[string]*tail.FileState
}

// New constructs a watcher over the configured directory.
func New(cfg *config.Config, logger *slog.Logger, sink Sink) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		sink:    sink,
		tracked: make(map[string]*tail.FileState),
	}
}

// TrackedFiles returns the paths currently under observation, sorted.
func (w *Watcher) TrackedFiles() []string {
	paths := make([]string, 0, len(w.tracked))
	for path := range w.tracked {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// PollOnce runs a single reconcile-and-tail cycle.
func (w *Watcher) PollOnce(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(w.cfg.Paths.WatchDir, FilePattern))
	if err != nil {
		return fmt.Errorf("glob watch directory: %w", err)
	}

	current := make(map[string]struct{}, len(matches))
	for _, path := range matches {
		current[path] = struct{}{}
		if _, ok := w.tracked[path]; ok {
			continue
		}
		w.adopt(path)
	}

	for path := range w.tracked {
		if _, ok := current[path]; ok {
			continue
		}
		// Glob swallows directory-read errors and can come up empty while
		// the file is still there. Dropping state then would re-prime at
		// end-of-file and lose rows appended in the interim, so only a
		// confirmed disappearance evicts.
		if _, statErr := os.Stat(path); statErr == nil {
			continue
		}
		w.logger.Info("export file disappeared", logging.String(logging.FieldFile, path))
		delete(w.tracked, path)
	}

	for _, path := range w.TrackedFiles() {
		state := w.tracked[path]
		measurements, err := tail.ReadNew(state)
		if err != nil {
			// One unreadable file must not starve the rest.
			w.logger.Warn("tail failed",
				logging.String(logging.FieldFile, path),
				logging.Error(err))
			continue
		}
		for _, m := range measurements {
			if err := w.sink.Add(ctx, m); err != nil {
				return fmt.Errorf("persist measurement from %s: %w", path, err)
			}
		}
	}

	if w.sink.Due() {
		if err := w.sink.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) adopt(path string) {
	source := SourceFromName(filepath.Base(path))
	state := tail.NewFileState(path, source)
	if !w.cfg.Watch.Backfill {
		if err := tail.PrimeAtEnd(state); err != nil {
			w.logger.Warn("prime at end failed, reading from start",
				logging.String(logging.FieldFile, path),
				logging.Error(err))
		}
	}
	w.tracked[path] = state
	w.logger.Info("tracking export file",
		logging.String(logging.FieldFile, path),
		logging.String(logging.FieldSource, source),
		logging.Bool("backfill", w.cfg.Watch.Backfill))
}

// Run polls until the context is canceled. Cancellation is honored both
// before each cycle and during the inter-cycle sleep.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.cfg.PollInterval()
	if interval <= 0 {
		interval = time.Second
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.PollOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
