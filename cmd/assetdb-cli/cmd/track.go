package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/application/tracker"
	"assetdb/internal/asset"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run one dependency crawl pass",
	Long: `Crawl every registered asset whose file changed since it was last
indexed, and record its dependency edges in the cache. This is the one-shot
form of the background tracker the TUI runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr := tracker.New(res, index, &asset.Loader{Root: index.Root()}, logger)
		stats := tr.TrackAll()
		fmt.Printf("Files: %d seen, %d crawled, %d unchanged, %d failures (%s)\n",
			stats.FilesSeen, stats.FilesCrawled, stats.FilesSkipped, stats.Failures, stats.Duration)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
}
