package commands

import (
	"os"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/cmd/mtscrape/session"
	"mytimetable-scraper/internal/components/chrono"
	"mytimetable-scraper/internal/ingest"
	"mytimetable-scraper/internal/report"
	"mytimetable-scraper/internal/store"

	"github.com/spf13/cobra"
)

var (
	scrapeCourses string
	scrapeDumpDir string
)

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCourses, "courses", "", "course list, one code per line (defaults to courses_path)")
	scrapeCmd.Flags().StringVar(&scrapeDumpDir, "dump-http", "", "write every api request/response pair to this directory")
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetches class data for every course in the course list that has no outcome yet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)
		cfg := value.Config
		paths := cfg.Paths()

		coursesPath := paths.CoursesPath
		if scrapeCourses != "" {
			coursesPath = scrapeCourses
		}
		courses, err := ingest.LoadCourses(coursesPath)
		if err != nil {
			return err
		}

		log := store.NewOutcomeLog(paths.ResultsPath)
		defer log.Close()

		scraper := session.NewLazy(ctx, value, scrapeDumpDir)
		defer scraper.Close()

		pipeline := ingest.NewPipeline(
			scraper,
			log,
			store.NewArtifactStore(paths.XmlRoot, cfg.Term.Id),
			ingest.Options{
				Delay:         cfg.Delay(),
				ProgressEvery: cfg.ProgressEvery,
			},
			value.Tel,
			chrono.NewStandardTime(),
		)

		summary, err := pipeline.Run(ctx, courses)
		report.RenderRun(os.Stdout, summary.RunId, summary.Ok, summary.Fail, summary.Skipped)
		return err
	},
}
