package archive

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the archive database file for writes by the external
// ingester and calls cb after changes settle. The parent directory is watched
// rather than the file itself so atomic replaces and WAL checkpoints are not
// missed. Runs until ctx is cancelled.
func Watch(ctx context.Context, dbPath string, logger *slog.Logger, cb func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(dbPath)
	if err := w.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(dbPath)

	logger.Info("watcher: started", slog.String("db", dbPath))

	// Ingester writes arrive in bursts; debounce before notifying.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleNotify := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(500 * time.Millisecond)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(500 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			logger.Debug("watcher: archive changed")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Only the database file and its sqlite sidecars matter.
			name := filepath.Base(ev.Name)
			if name != base && !strings.HasPrefix(name, base+"-") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleNotify()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
