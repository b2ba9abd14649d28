// Package export loads a run's outcome log and artifacts into a SQL database.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"mytimetable-scraper/internal/components/assert"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/db"
	"mytimetable-scraper/internal/store"
)

const report_export_artifact = "export.artifact"

type Stats struct {
	Outcomes  int
	Artifacts int
	// Missing counts outcomes whose artifact is gone from disk.
	Missing int
}

type Exporter struct {
	database  *sql.DB
	artifacts store.ArtifactStore
	term      string
	tel       telemetry.API
}

func NewExporter(database *sql.DB, artifacts store.ArtifactStore, term string, tel telemetry.API) Exporter {
	assert.NotNil(database)
	assert.NotNil(tel)
	return Exporter{
		database:  database,
		artifacts: artifacts,
		term:      term,
		tel:       telemetry.NewScopedAPI("export", tel),
	}
}

// Migrate creates the tables if they do not exist yet.
func (e Exporter) Migrate(ctx context.Context) error {
	_, err := e.database.ExecContext(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Export upserts every outcome, later records for a course replace earlier
// ones, and copies the artifact of every fetched course.
func (e Exporter) Export(ctx context.Context, outcomes []store.Outcome) (Stats, error) {
	stats := Stats{}
	err := db.RunTx(ctx, e.database, func(qry *db.Queries) error {
		for _, o := range outcomes {
			err := qry.UpsertOutcome(ctx, db.UpsertOutcomeParams{
				Course:     o.Course,
				Term:       e.term,
				Ok:         o.Ok,
				Stage:      string(o.Stage),
				CnKey:      o.CnKey,
				Va:         o.Va,
				HttpStatus: int64(o.HttpStatus),
				XmlPath:    o.XmlPath,
				Error:      o.Error,
			})
			if err != nil {
				return fmt.Errorf("outcome %s: %w", o.Course, err)
			}
			stats.Outcomes++

			if o.XmlPath == "" {
				continue
			}
			body, err := os.ReadFile(o.XmlPath)
			if errors.Is(err, os.ErrNotExist) {
				body, err = e.artifacts.Load(o.CnKey)
			}
			if errors.Is(err, os.ErrNotExist) {
				e.tel.ReportWarning(report_export_artifact, o.Course, o.XmlPath)
				stats.Missing++
				continue
			}
			if err != nil {
				return fmt.Errorf("artifact %s: %w", o.XmlPath, err)
			}
			err = qry.UpsertClassData(ctx, db.UpsertClassDataParams{
				Term:  e.term,
				CnKey: o.CnKey,
				Body:  string(body),
			})
			if err != nil {
				return fmt.Errorf("artifact %s: %w", o.XmlPath, err)
			}
			stats.Artifacts++
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	return stats, nil
}
