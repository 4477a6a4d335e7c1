package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/domain"
)

var listCmd = &cobra.Command{
	Use:   "list [pattern]",
	Short: "List entries matching a glob pattern",
	Long: `List live entries whose path matches a glob pattern. Without a
pattern, every live entry is listed.

Examples:
  assetdb-cli list
  assetdb-cli list "props/*.entity.json"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		files, err := res.FindFilesByPattern(pattern)
		if err != nil {
			return err
		}
		printFiles(files)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entries by path substring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := res.SearchFiles(args[0])
		if err != nil {
			return err
		}
		printFiles(files)
		return nil
	},
}

func printFiles(files []*domain.ManagedFile) {
	if len(files) == 0 {
		fmt.Println("No entries found")
		return
	}
	for _, f := range files {
		fmt.Printf("%s  %s\n", f.ID.Hex(), f.Path)
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}
