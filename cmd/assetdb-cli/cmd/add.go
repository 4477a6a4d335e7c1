package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/domain"
)

var addCmd = &cobra.Command{
	Use:   "add <path> [id]",
	Short: "Bind a file path to an id",
	Long: `Bind a root-relative file path to a permanent id.

Without an id argument a fresh random id is generated. Passing an id is
for re-registering a known binding, for example when importing assets
whose ids are already referenced by other files.

Examples:
  assetdb-cli add world/overworld.world.json
  assetdb-cli add props/crate.entity.json 0x00000000DEADBEEF`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		requested := domain.TUIDNull
		if len(args) == 2 {
			id, err := domain.ParseTUID(args[1])
			if err != nil {
				return err
			}
			requested = id
		}

		id, err := res.AddEntry(args[0], requested, true)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s as %s\n", args[0], id.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
}
