// Package watcher bridges filesystem change notifications to the dependency
// tracker: a recursive watch over the managed root flags touched files so
// they re-crawl ahead of the next full pass.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// DirtyMarker is the tracker-side surface the watcher feeds.
type DirtyMarker interface {
	MarkDirty(relPath string)
}

// Watcher forwards create and write events under the managed root to a
// DirtyMarker. New directories are added to the watch as they appear.
type Watcher struct {
	root    string
	marker  DirtyMarker
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

func New(root string, marker DirtyMarker, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		marker:  marker,
		logger:  logger,
		watcher: fsw,
		done:    make(chan struct{}),
	}

	if err := w.watchRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Start runs the event loop until Close.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the event loop and releases the underlying watches.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.watchRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory",
					"dir", event.Name, "error", err)
			}
		}
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	w.marker.MarkDirty(filepath.ToSlash(rel))
}
