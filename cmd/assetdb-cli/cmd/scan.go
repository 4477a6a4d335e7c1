package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/adapters/filesystem"
	"assetdb/internal/domain"
)

var scanRegister bool

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find asset files on disk that have no entry",
	Long: `Walk the managed root and report every recognized asset file that
has no binding. With --register each one is added with a fresh id, all in
a single batch of events.

Examples:
  assetdb-cli scan
  assetdb-cli scan --register`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registered := make(map[string]bool)
		files, err := res.FindFilesByPattern("*")
		if err != nil {
			return err
		}
		for _, f := range files {
			registered[f.Path] = true
		}

		repo := filesystem.NewRepository(index.Root())
		missing, err := repo.FindUnregistered(registered)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			fmt.Println("Nothing unregistered")
			return nil
		}

		if !scanRegister {
			for _, p := range missing {
				fmt.Println(p)
			}
			fmt.Printf("%d unregistered; rerun with --register to add\n", len(missing))
			return nil
		}

		if err := res.BeginTrans(); err != nil {
			return err
		}
		for _, p := range missing {
			id, err := res.AddEntry(p, domain.TUIDNull, true)
			if err != nil {
				res.RollbackTrans()
				return fmt.Errorf("failed to add %s: %w", p, err)
			}
			fmt.Printf("Added %s as %s\n", p, id.Hex())
		}
		return res.CommitTrans()
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanRegister, "register", false, "register every unregistered file")
	rootCmd.AddCommand(scanCmd)
}
