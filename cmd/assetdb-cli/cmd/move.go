package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var moveCmd = &cobra.Command{
	Use:   "move <id|path> <new-path>",
	Short: "Move an entry to a new path",
	Long: `Rebind an existing id to a new root-relative path.

The entry may be named by its hex id or by its current path. The file's
id is unchanged, so references from other assets keep resolving.

Examples:
  assetdb-cli move props/crate.entity.json props/containers/crate.entity.json
  assetdb-cli move 0x00000000DEADBEEF props/containers/crate.entity.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFileArg(args[0])
		if err != nil {
			return err
		}
		if file.WasDeleted {
			return fmt.Errorf("%s is deleted; re-add it before moving", file.ID.Hex())
		}

		if _, err := res.UpdateEntry(file, args[1], true); err != nil {
			return err
		}
		fmt.Printf("Moved %s to %s\n", file.ID.Hex(), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
