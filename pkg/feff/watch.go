package feff

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-scans a run directory whenever its manifest is rewritten,
// e.g. while FEFF is still running.
type Watcher struct {
	dir      string
	opts     ScanOptions
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onScan   func(*Catalog, error)
	logger   *zap.Logger
}

// NewWatcher creates a watcher for dir. Run must be called to release the
// underlying file watch.
func NewWatcher(dir string, opts ScanOptions, onScan func(*Catalog, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		opts:     opts,
		watcher:  fw,
		debounce: 200 * time.Millisecond,
		onScan:   onScan,
		logger:   logger,
	}, nil
}

// SetDebounce changes the quiet period between the last manifest event and
// the re-scan.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run blocks until ctx is done, invoking the callback after each burst of
// manifest writes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching run directory", zap.String("dir", w.dir))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != ManifestName || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			cat, err := Scan(w.dir, w.opts)
			w.onScan(cat, err)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
