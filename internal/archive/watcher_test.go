package archive

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatal(msg)
}

type watchCounter struct {
	mu sync.Mutex
	n  int
}

func (c *watchCounter) bump() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *watchCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func startWatcher(t *testing.T, dbPath string) *watchCounter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	counter := &watchCounter{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, dbPath, logger, counter.bump)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	return counter
}

func TestWatchNotifiesOnDatabaseWrite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	counter := startWatcher(t, dbPath)

	if err := os.WriteFile(dbPath, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return counter.count() >= 1
	}, "watcher never reported the database write")
}

func TestWatchNotifiesOnWALSidecar(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	counter := startWatcher(t, dbPath)

	if err := os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return counter.count() >= 1
	}, "watcher never reported the WAL write")
}

func TestWatchIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	counter := startWatcher(t, dbPath)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(time.Second)
	if got := counter.count(); got != 0 {
		t.Errorf("watcher fired %d times for an unrelated file", got)
	}
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "archive.db")
	if err := os.WriteFile(dbPath, []byte("seed"), 0o644); err != nil {
		t.Fatal(err)
	}

	counter := startWatcher(t, dbPath)

	// Rapid writes land within one settle window.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(dbPath, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return counter.count() >= 1
	}, "watcher never reported the burst")

	time.Sleep(time.Second)
	if got := counter.count(); got != 1 {
		t.Errorf("burst produced %d notifications, want 1", got)
	}
}
