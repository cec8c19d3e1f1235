// Package watch imports brain dumps dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salmonumbrella/braindump/internal/outline"
)

const (
	// ProcessedDir receives files that imported cleanly.
	ProcessedDir = "processed"
	// FailedDir receives files whose import returned an error.
	FailedDir = "failed"

	// DefaultSettle is how long a file must go without events before it is imported.
	DefaultSettle = 500 * time.Millisecond

	tickInterval = 100 * time.Millisecond
)

// ImportFunc imports the contents of one inbox file.
type ImportFunc func(ctx context.Context, text, format string) error

// Stats counts watcher activity.
type Stats struct {
	Processed int
	Failed    int
	Errors    int
	LastFile  string
}

// Watcher imports *.txt and *.md files from an inbox directory.
type Watcher struct {
	dir      string
	importFn ImportFunc
	logger   *zap.Logger
	settle   time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a changed file is imported.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for dir.
func New(dir string, fn ImportFunc, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, errors.New("inbox directory is required")
	}
	if fn == nil {
		return nil, errors.New("import function is required")
	}
	w := &Watcher{
		dir:      filepath.Clean(dir),
		importFn: fn,
		logger:   zap.NewNop(),
		settle:   DefaultSettle,
		pending:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// FormatFor returns the outline format for an inbox file, or "" if the file is ignored.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return outline.FormatText
	case ".md", ".markdown":
		return outline.FormatMarkdown
	default:
		return ""
	}
}

// Run imports the files already in the inbox, then watches for new ones until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s dir: %w", sub, err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", zap.String("dir", w.dir))

	existing, err := w.scan()
	if err != nil {
		return err
	}
	for _, path := range existing {
		if ctx.Err() != nil {
			return nil
		}
		w.process(ctx, path)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-fsw.Events:
				if !ok {
					return nil
				}
				w.handleEvent(event)
			case err, ok := <-fsw.Errors:
				if !ok {
					return nil
				}
				w.logger.Warn("watcher error", zap.Error(err))
				w.mu.Lock()
				w.stats.Errors++
				w.mu.Unlock()
			}
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				for _, path := range w.settled(time.Now()) {
					w.process(gctx, path)
				}
			}
		}
	})
	return g.Wait()
}

func (w *Watcher) scan() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || FormatFor(e.Name()) == "" {
			continue
		}
		paths = append(paths, filepath.Join(w.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if FormatFor(event.Name) == "" || filepath.Dir(event.Name) != w.dir {
		return
	}
	w.logger.Debug("inbox event", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// settled removes and returns the pending paths that have been quiet for the settle period.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) process(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}

	if err == nil {
		err = w.importFn(ctx, string(data), FormatFor(path))
	}

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.logger.Warn("inbox import failed", zap.String("path", path), zap.Error(err))
	} else {
		w.logger.Info("inbox file imported", zap.String("path", path))
	}

	target, moveErr := w.move(path, dest)
	if moveErr != nil {
		w.logger.Error("failed to move inbox file", zap.String("path", path), zap.Error(moveErr))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.stats.Failed++
	} else {
		w.stats.Processed++
	}
	if moveErr != nil {
		w.stats.Errors++
	}
	w.stats.LastFile = target
}

// move renames path into sub, adding a numeric suffix when the name is taken.
func (w *Watcher) move(path, sub string) (string, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	target := filepath.Join(w.dir, sub, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			break
		}
		target = filepath.Join(w.dir, sub, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	if err := os.Rename(path, target); err != nil {
		return "", err
	}
	return target, nil
}
