package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id|path>",
	Short: "Delete an entry",
	Long: `Mark an entry deleted.

The binding is tombstoned, not erased: the id stays reserved and the
entry can be restored by adding the same path with the same id again.

Examples:
  assetdb-cli delete props/crate.entity.json
  assetdb-cli delete 0x00000000DEADBEEF`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := resolveFileArg(args[0])
		if err != nil {
			return err
		}
		if file.WasDeleted {
			fmt.Printf("%s is already deleted\n", file.ID.Hex())
			return nil
		}

		if err := res.DeleteEntry(file, true); err != nil {
			return err
		}
		fmt.Printf("Deleted %s (%s)\n", file.Path, file.ID.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
