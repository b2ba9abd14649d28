package commands

import (
	"fmt"
	"os"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/internal/db"
	"mytimetable-scraper/internal/export"
	"mytimetable-scraper/internal/store"

	"github.com/spf13/cobra"
)

var (
	exportDb        string
	exportAuthToken string
)

func init() {
	exportCmd.Flags().StringVar(&exportDb, "db", "", "sqlite file or libsql:// url to export into")
	exportCmd.Flags().StringVar(&exportAuthToken, "auth-token", os.Getenv("LIBSQL_AUTH_TOKEN"), "auth token for remote databases")
	exportCmd.MarkFlagRequired("db")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Loads the outcome log and the saved class data into a SQLite or libSQL database.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		cfg := value.Config
		paths := cfg.Paths()

		outcomes, skipped, err := store.NewOutcomeLog(paths.ResultsPath).Outcomes()
		if err != nil {
			return err
		}
		if skipped > 0 {
			value.Tel.ReportWarning("export.skipped-lines", skipped)
		}

		database, err := db.ParseTarget(exportDb, exportAuthToken).OpenDB()
		if err != nil {
			return fmt.Errorf("open %s: %w", exportDb, err)
		}
		defer database.Close()

		exporter := export.NewExporter(database, store.NewArtifactStore(paths.XmlRoot, cfg.Term.Id), cfg.Term.Id, value.Tel)
		err = exporter.Migrate(ctx)
		if err != nil {
			return err
		}
		stats, err := exporter.Export(ctx, outcomes)
		if err != nil {
			return err
		}
		fmt.Printf("exported %d outcomes and %d class data payloads (%d missing) into %s\n", stats.Outcomes, stats.Artifacts, stats.Missing, exportDb)
		return nil
	},
}
