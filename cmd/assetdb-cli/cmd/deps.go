package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/domain"
)

var depsCmd = &cobra.Command{
	Use:   "deps <id|path>",
	Short: "Show what an asset references",
	Long: `Show the tracked dependency edges of an asset: every other
registered asset its object graph refers to.

Edges reflect the tracker's last crawl; run "assetdb-cli track" first if
files changed since.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printEdges(args[0], index.SelectDependencies)
	},
}

var usagesCmd = &cobra.Command{
	Use:   "usages <id|path>",
	Short: "Show what references an asset",
	Long: `Show the reverse dependency edges of an asset: every registered
asset whose object graph refers to it. This is the question to ask before
deleting anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printEdges(args[0], index.SelectUsages)
	},
}

func printEdges(arg string, edges func(domain.TUID) ([]domain.TUID, error)) error {
	file, err := resolveFileArg(arg)
	if err != nil {
		return err
	}

	ids, err := edges(file.ID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No edges recorded")
		return nil
	}
	for _, id := range ids {
		other, err := res.GetFileByID(id, true)
		if err != nil {
			return err
		}
		if other == nil {
			fmt.Printf("%s  (unresolved)\n", id.Hex())
			continue
		}
		fmt.Printf("%s  %s\n", id.Hex(), other.Path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(usagesCmd)
}
