package tracker

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"assetdb/internal/application/resolver"
	"assetdb/internal/domain"
	"assetdb/internal/ports"
)

// Default candidate patterns: every file type whose object graph can hold
// references worth crawling. Leaf types (textures, meshes) show up as edge
// targets but are never crawled themselves.
var defaultPatterns = []string{
	"*.entity.json",
	"*.shader.json",
	"*.world.json",
	"*.zone.json",
	"*.anim.json",
}

const (
	defaultSleepInterval = 5 * time.Minute
	// granularity of cancellation checks during the inter-pass sleep
	sleepSlice  = 2 * time.Second
	stopTimeout = 10 * time.Second
)

// Tracker maintains the dependency cache: a background worker re-crawls
// every managed asset, skipping files whose on-disk mtime has not moved
// past their last indexed time. One worker per process; Start and Stop
// manage its lifecycle cooperatively.
type Tracker struct {
	resolver *resolver.Resolver
	index    ports.CacheIndex
	loader   ports.AssetLoader
	logger   *slog.Logger

	patterns      []string
	sleepInterval time.Duration

	running  atomic.Bool
	stopFlag atomic.Bool
	done     chan struct{}

	progress atomic.Int64
	total    atomic.Int64

	mu    sync.Mutex
	dirty map[string]struct{} // paths flagged by the watcher between passes
}

func New(res *resolver.Resolver, index ports.CacheIndex, loader ports.AssetLoader, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		resolver:      res,
		index:         index,
		loader:        loader,
		logger:        logger,
		patterns:      defaultPatterns,
		sleepInterval: defaultSleepInterval,
		dirty:         make(map[string]struct{}),
	}
}

// SetSleepInterval overrides the pause between crawl passes. Only valid
// before StartThread.
func (t *Tracker) SetSleepInterval(d time.Duration) {
	t.sleepInterval = d
}

// StartThread launches the background worker. Starting an already running
// tracker is an error.
func (t *Tracker) StartThread() error {
	if !t.running.CompareAndSwap(false, true) {
		return fmt.Errorf("tracker already running")
	}
	t.stopFlag.Store(false)
	t.done = make(chan struct{})
	go t.trackEverything()
	return nil
}

// StopThread requests cooperative cancellation and waits, with a bounded
// timeout, for the worker to observe it and exit. A worker stuck in a
// blocking call past the timeout is reported, not force-killed.
func (t *Tracker) StopThread() error {
	if !t.running.Load() {
		return nil
	}
	t.stopFlag.Store(true)

	deadline := time.NewTimer(stopTimeout)
	defer deadline.Stop()
	select {
	case <-t.done:
		return nil
	case <-deadline.C:
		return fmt.Errorf("tracker did not stop within %s", stopTimeout)
	}
}

// IsTracking reports whether the background worker is running.
func (t *Tracker) IsTracking() bool {
	return t.running.Load()
}

// GetTrackingProgress is the number of files processed in the current pass.
func (t *Tracker) GetTrackingProgress() int64 {
	return t.progress.Load()
}

// GetTrackingTotal is the number of candidate files in the current pass.
func (t *Tracker) GetTrackingTotal() int64 {
	return t.total.Load()
}

// MarkDirty flags a path for tracking ahead of the next full pass. Called
// by the filesystem watcher; safe from any goroutine.
func (t *Tracker) MarkDirty(relPath string) {
	t.mu.Lock()
	t.dirty[relPath] = struct{}{}
	t.mu.Unlock()
}

func (t *Tracker) takeDirty() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.dirty) == 0 {
		return nil
	}
	paths := make([]string, 0, len(t.dirty))
	for p := range t.dirty {
		paths = append(paths, p)
	}
	t.dirty = make(map[string]struct{})
	return paths
}

// TrackAll runs one crawl pass over every registered file, skipping the
// ones whose payload is unchanged on disk. It honors a pending stop request
// mid-pass.
func (t *Tracker) TrackAll() *domain.CrawlStats {
	candidates := t.enumerateCandidates()
	t.total.Store(int64(len(candidates)))
	t.progress.Store(0)

	start := time.Now()
	stats := &domain.CrawlStats{FilesSeen: len(candidates)}
	for _, file := range candidates {
		if t.stopFlag.Load() {
			break
		}

		tracked, err := t.TrackFile(file)
		switch {
		case err != nil:
			stats.Failures++
			t.logger.Warn("failed to track file",
				"path", file.Path, "id", file.ID.Hex(), "error", err)
		case tracked:
			stats.FilesCrawled++
		default:
			stats.FilesSkipped++
		}
		t.progress.Add(1)
	}
	stats.Duration = time.Since(start)
	if stats.FilesCrawled > 0 || stats.Failures > 0 {
		t.logger.Info("crawl pass complete",
			"seen", stats.FilesSeen, "crawled", stats.FilesCrawled,
			"skipped", stats.FilesSkipped, "failures", stats.Failures,
			"duration", stats.Duration)
	}
	return stats
}

// trackEverything is the worker loop: crawl every candidate, sleep in
// short slices so cancellation and watcher wakeups stay responsive, repeat.
func (t *Tracker) trackEverything() {
	defer func() {
		t.running.Store(false)
		close(t.done)
	}()

	for {
		if t.stopFlag.Load() {
			return
		}

		t.TrackAll()

		if !t.sleep() {
			return
		}
	}
}

// sleep pauses between passes, waking early for watcher-flagged files.
// Returns false when cancellation was requested.
func (t *Tracker) sleep() bool {
	remaining := t.sleepInterval
	for remaining > 0 {
		if t.stopFlag.Load() {
			return false
		}

		for _, p := range t.takeDirty() {
			file, err := t.resolver.GetFileByPath(p, false)
			if err != nil || file == nil {
				continue
			}
			if _, err := t.TrackFile(file); err != nil {
				t.logger.Warn("failed to track dirty file", "path", p, "error", err)
			}
		}

		slice := sleepSlice
		if remaining < slice {
			slice = remaining
		}
		time.Sleep(slice)
		remaining -= slice
	}
	return !t.stopFlag.Load()
}

func (t *Tracker) enumerateCandidates() []*domain.ManagedFile {
	var all []*domain.ManagedFile
	seen := make(map[domain.TUID]bool)
	for _, pattern := range t.patterns {
		files, err := t.resolver.FindFilesByPattern(pattern)
		if err != nil {
			t.logger.Warn("failed to enumerate candidates", "pattern", pattern, "error", err)
			continue
		}
		for _, f := range files {
			if !seen[f.ID] {
				seen[f.ID] = true
				all = append(all, f)
			}
		}
	}
	return all
}

// TrackFile crawls one file if its on-disk state is newer than its indexed
// state. Returns whether a crawl happened. The crawl's results, the file's
// own record plus every file discovered along the way, commit in one
// transaction; an error rolls all of it back, leaving the previous edge
// sets intact.
func (t *Tracker) TrackFile(file *domain.ManagedFile) (bool, error) {
	changed, err := t.index.HasChangedOnDisk(file)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	c := newCrawl(t)
	c.trackAssetFile(file)

	if err := t.index.BeginTrans(); err != nil {
		return false, err
	}
	for _, a := range c.files {
		if err := t.index.InsertAssetFile(a); err != nil {
			t.index.RollbackTrans()
			return false, err
		}
	}
	if err := t.index.CommitTrans(); err != nil {
		return false, err
	}
	return true, nil
}
