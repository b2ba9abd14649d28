package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

func TestOutcomeLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results_3202610.ndjson")
	log := NewOutcomeLog(path)
	defer log.Close()

	for _, o := range []Outcome{
		Succeeded("COMPSCI 1MD3", "k1", "v1", 200, "out/xml/3202610/k1.xml"),
		ResolveFailed("BOGUS 9Z99", "No resolver result"),
		ClassDataFailed("MATH 1ZA3", "k2", "", 200, "out/xml/3202610/k2.xml", "No sections offered"),
		ClassDataFailed("ENG 1P13", "k3", "v3", 200, "", "session expired"),
	} {
		require.NoError(t, log.Append(o))
	}

	written, err := os.ReadFile(path)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "outcome_log", written)
}

func TestProcessedSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.ndjson")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"course":"A","ok":true,"cnKey":"1","va":"x","httpStatus":200,"xmlPath":"a.xml"}`+"\n"+
			"\n"+
			"   \n"+
			`{not json`+"\n"+
			`{"ok":true}`+"\n"+
			`{"course":""}`+"\n"+
			`[1,2]`+"\n"+
			`{"course":"B","ok":"yes"}`+"\r\n"+
			`{"course":"C","ok":false,"stage":"resolve","error":"No resolver result"}`,
	), 0644))

	log := NewOutcomeLog(path)
	processed, err := log.Processed()
	require.NoError(t, err)
	require.Equal(t, ProcessedSet{"A": {}, "B": {}, "C": {}}, processed)

	outcomes, skipped, err := log.Outcomes()
	require.NoError(t, err)
	require.Equal(t, 4, skipped)
	require.Len(t, outcomes, 3)
	require.True(t, outcomes[0].Ok)
	require.Equal(t, "B", outcomes[1].Course)
	require.Equal(t, StageResolve, outcomes[2].Stage)
}

func TestProcessedMissingFile(t *testing.T) {
	log := NewOutcomeLog(filepath.Join(t.TempDir(), "nope.ndjson"))
	processed, err := log.Processed()
	require.NoError(t, err)
	require.Empty(t, processed)

	_, err = os.Stat(log.Path())
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAppendThenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.ndjson")
	log := NewOutcomeLog(path)
	require.NoError(t, log.Append(ResolveFailed("X 1", "nope")))
	require.NoError(t, log.Close())

	// reopening appends after the existing record
	log = NewOutcomeLog(path)
	require.NoError(t, log.Append(Succeeded("Y 2", "k", "v", 200, "k.xml")))
	require.NoError(t, log.Close())

	processed, err := log.Processed()
	require.NoError(t, err)
	require.True(t, processed.Has("X 1"))
	require.True(t, processed.Has("Y 2"))
	require.False(t, processed.Has("Z 3"))
}

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"COMPSCI-1MD3": "COMPSCI-1MD3",
		"a b/c":        "a_b_c",
		"../../etc":    ".._.._etc",
		"k:1::2":       "k_1_2",
		"já":           "j_",
		"plain_key.v2": "plain_key.v2",
		"":             "",
	}
	for in, expect := range cases {
		require.Equal(t, expect, SanitizeKey(in), in)
	}
}

func TestArtifactStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "xml")
	artifacts := NewArtifactStore(root, "3202610")

	path, err := artifacts.Save("k/1", []byte("<first/>"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "3202610", "k_1.xml"), path)

	_, err = artifacts.Save("k/1", []byte("<second/>"))
	require.NoError(t, err)

	body, err := artifacts.Load("k/1")
	require.NoError(t, err)
	require.Equal(t, "<second/>", string(body))
}
