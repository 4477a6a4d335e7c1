package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Export or import this client's event log",
}

var eventsExportCmd = &cobra.Command{
	Use:     "export [file]",
	Aliases: []string{"dump"},
	Short:   "Export events in a human-editable form",
	Long: `Write this client's events in the human-readable export format, to
stdout or to a file. The export can be hand-edited and imported back, which
is the escape hatch for repairing a bad event.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		return eventLog.ExportHuman(out)
	},
}

var eventsImportCmd = &cobra.Command{
	Use:     "import <file>",
	Aliases: []string{"load"},
	Short:   "Replace this client's log from an export",
	Long: `Parse a human-readable export and replace this client's event log
with its contents. Other clients' logs are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := eventLog.ImportHuman(f, fmt.Sprintf("import from %s", args[0])); err != nil {
			return err
		}
		fmt.Println("Imported; run \"assetdb-cli recreate\" to rebuild the cache")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsExportCmd)
	eventsCmd.AddCommand(eventsImportCmd)
}
