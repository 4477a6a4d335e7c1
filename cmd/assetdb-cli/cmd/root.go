package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"assetdb/internal/adapters/eventlog"
	"assetdb/internal/adapters/rcs"
	"assetdb/internal/adapters/sqlite"
	"assetdb/internal/application"
	"assetdb/internal/application/resolver"
	"assetdb/internal/config"
	"assetdb/internal/domain"
)

var (
	rootPath string
	index    *sqlite.Index
	res      *resolver.Resolver
	eventLog *eventlog.Log
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "assetdb-cli",
	Short: "CLI for the replicated asset identity database",
	Long: `assetdb-cli manages the identity database over a shared asset root.

Every asset file is bound to a permanent 64-bit id through append-only
event logs shared between clients. The local SQLite cache is reconciled
from those logs, so lookups stay fast while the logs stay authoritative.

It provides commands to add, move, delete, look up, and search entries,
inspect dependency edges, reconcile the event logs, and export or import
a client's log in a human-editable form.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))
		index = sqlite.NewIndex()
		if err := index.Open(rootPath); err != nil {
			return fmt.Errorf("%w: %v", application.ErrStoreUnavailable, err)
		}
		eventLog = eventlog.New(config.EventsDir(index.Root()), config.Author(), rcs.NewLocal(), logger)
		res = resolver.New(index, eventLog, logger)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if index != nil {
			return index.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", config.Root(), "path to the managed assets root")
}

// resolveFileArg accepts either a hex id or a root-relative path and
// returns the matching entry. Deleted entries are included so that move
// and delete can report a precise state instead of "not found".
func resolveFileArg(arg string) (*domain.ManagedFile, error) {
	if id, err := domain.ParseTUID(arg); err == nil && id != domain.TUIDNull {
		file, err := res.GetFileByID(id, true)
		if err != nil {
			return nil, err
		}
		if file != nil {
			return file, nil
		}
	}
	file, err := res.GetFileByPath(arg, true)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("no entry matches %q: %w", arg, application.ErrNotFound)
	}
	return file, nil
}
