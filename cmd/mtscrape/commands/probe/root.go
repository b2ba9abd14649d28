package probe

import (
	"github.com/spf13/cobra"
)

var dumpDir string

var RootCmd = &cobra.Command{
	Use:   "probe",
	Short: "Smoke tests single endpoints through the browser session.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dumpDir, "dump-http", "", "write every api request/response pair to this directory")
	RootCmd.AddCommand(suggestionsCmd)
	RootCmd.AddCommand(resolveCmd)
	RootCmd.AddCommand(captureCmd)
}
