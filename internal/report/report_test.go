package report

import (
	"bytes"
	"strings"
	"testing"

	"mytimetable-scraper/internal/store"

	"github.com/stretchr/testify/require"
)

var outcomes = []store.Outcome{
	store.Succeeded("BIO 1A03", "4071", "va", 200, "out/xml/1/4071.xml"),
	store.ResolveFailed("FAKE 9999", "No resolver result"),
	store.ClassDataFailed("MATH 1ZA3", "6620", "va", 200, "out/xml/1/6620.xml", "No sections offered"),
	store.ResolveFailed("NOPE 0000", "Course not found"),
}

func TestCount(t *testing.T) {
	tally := Count(outcomes, 3)
	require.Equal(t, Tally{Ok: 1, ResolveFail: 2, ClassDataFail: 1, Skipped: 3}, tally)
	require.Equal(t, 4, tally.Total())
}

func TestRenderTally(t *testing.T) {
	var buff bytes.Buffer
	RenderTally(&buff, "results_1.ndjson", Count(outcomes, 0))
	out := buff.String()
	require.Contains(t, out, "results_1.ndjson")
	require.Contains(t, strings.ToLower(out), "resolve failed")
	require.Contains(t, out, "╭")
}

func TestRenderFailures(t *testing.T) {
	var buff bytes.Buffer
	RenderFailures(&buff, outcomes)
	out := buff.String()
	require.Contains(t, out, "FAKE 9999")
	require.Contains(t, out, "No sections offered")
	require.NotContains(t, out, "BIO 1A03")
}

func TestRenderRun(t *testing.T) {
	var buff bytes.Buffer
	RenderRun(&buff, "0b6c", 3, 1, 7)
	out := buff.String()
	require.Contains(t, out, "run 0b6c")
	require.Contains(t, out, "SKIPPED")
}
