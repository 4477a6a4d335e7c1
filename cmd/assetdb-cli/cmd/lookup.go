package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <id|path>",
	Short: "Show an entry's binding",
	Long: `Show the full binding record for an id or path, including the
tombstone state for deleted entries.

Examples:
  assetdb-cli lookup props/crate.entity.json
  assetdb-cli lookup 0x00000000DEADBEEF`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFileArg(args[0])
		if err != nil {
			return err
		}

		state := "live"
		if file.WasDeleted {
			state = "deleted"
		}
		fmt.Printf("ID:       %s\n", file.ID.Hex())
		fmt.Printf("Path:     %s\n", file.Path)
		fmt.Printf("State:    %s\n", state)
		fmt.Printf("Author:   %s\n", file.Username)
		fmt.Printf("Created:  %s\n", formatMillis(file.Created))
		fmt.Printf("Modified: %s\n", formatMillis(file.Modified))
		return nil
	},
}

func formatMillis(ms uint64) string {
	return time.UnixMilli(int64(ms)).Format(time.RFC3339)
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}
