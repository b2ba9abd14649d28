package commands

import (
	"os"
	"path/filepath"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/internal/report"
	"mytimetable-scraper/internal/store"

	"github.com/spf13/cobra"
)

var statusFailures bool

func init() {
	statusCmd.Flags().BoolVar(&statusFailures, "failures", false, "list every failed course")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Tallies the outcome log of the configured term.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		value := globals.Get(cmd.Context())
		log := store.NewOutcomeLog(value.Config.Paths().ResultsPath)

		outcomes, skipped, err := log.Outcomes()
		if err != nil {
			return err
		}
		report.RenderTally(os.Stdout, filepath.Base(log.Path()), report.Count(outcomes, skipped))
		if statusFailures {
			report.RenderFailures(os.Stdout, outcomes)
		}
		return nil
	},
}
