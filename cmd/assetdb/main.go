package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"assetdb/internal/adapters/eventlog"
	"assetdb/internal/adapters/rcs"
	"assetdb/internal/adapters/sqlite"
	"assetdb/internal/adapters/tui"
	"assetdb/internal/adapters/watcher"
	"assetdb/internal/application/resolver"
	"assetdb/internal/application/tracker"
	"assetdb/internal/asset"
	"assetdb/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The TUI owns the terminal, so logs go to a file instead of stderr.
	logPath := filepath.Join(os.TempDir(), "assetdb.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, nil))

	root := config.Root()
	index := sqlite.NewIndex()
	if err := index.Open(root); err != nil {
		return fmt.Errorf("failed to open cache index: %w", err)
	}
	defer index.Close()

	log := eventlog.New(config.EventsDir(root), config.Author(), rcs.NewLocal(), logger)
	res := resolver.New(index, log, logger)

	if index.NeedsRecreate() {
		if _, err := res.Recreate(); err != nil {
			return fmt.Errorf("failed to rebuild cache index: %w", err)
		}
	} else if _, err := res.Update(); err != nil {
		return fmt.Errorf("failed to reconcile event logs: %w", err)
	}

	tr := tracker.New(res, index, &asset.Loader{Root: root}, logger)
	if err := tr.StartThread(); err != nil {
		return err
	}
	defer tr.StopThread()

	w, err := watcher.New(root, tr, logger)
	if err != nil {
		logger.Warn("file watcher unavailable", "error", err)
	} else {
		w.Start()
		defer w.Close()
	}

	app := tui.NewApp(res, tr, root)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
