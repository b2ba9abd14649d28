package export

import (
	"context"
	"path/filepath"
	"testing"

	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/db"
	"mytimetable-scraper/internal/store"

	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	artifacts := store.NewArtifactStore(filepath.Join(dir, "xml"), "3202610")
	okPath, err := artifacts.Save("4071", []byte("<ok/>"))
	require.NoError(t, err)
	failPath, err := artifacts.Save("6620", []byte("<errors><error>x</error></errors>"))
	require.NoError(t, err)

	database, err := db.Target{File: filepath.Join(dir, "results.db")}.OpenDB()
	require.NoError(t, err)
	defer database.Close()

	rec := telemetry.NewRecorderAPI()
	exporter := NewExporter(database, artifacts, "3202610", rec)
	require.NoError(t, exporter.Migrate(ctx))

	outcomes := []store.Outcome{
		store.Succeeded("BIO 1A03", "4071", "va", 200, okPath),
		store.ResolveFailed("FAKE 9999", "No resolver result"),
		store.ClassDataFailed("MATH 1ZA3", "6620", "va", 200, failPath, "x"),
		store.Succeeded("GONE 1000", "7777", "va", 200, filepath.Join(dir, "xml", "3202610", "7777.xml")),
	}
	stats, err := exporter.Export(ctx, outcomes)
	require.NoError(t, err)
	require.Equal(t, Stats{Outcomes: 4, Artifacts: 2, Missing: 1}, stats)
	require.Len(t, rec.Reports(telemetry.REPORT_WARNING, "export.artifact"), 1)

	// exporting twice replaces rows instead of duplicating them
	_, err = exporter.Export(ctx, outcomes)
	require.NoError(t, err)

	qry := db.New(database)
	counts, err := qry.CountOutcomes(ctx, "3202610")
	require.NoError(t, err)
	require.Equal(t, db.CountOutcomesRow{Total: 4, Ok: 2}, counts)

	classData, err := qry.CountClassData(ctx, "3202610")
	require.NoError(t, err)
	require.Equal(t, int64(2), classData)

	row, err := qry.GetOutcome(ctx, "FAKE 9999")
	require.NoError(t, err)
	require.Equal(t, "resolve", row.Stage)
	require.Equal(t, "No resolver result", row.Error)

}
