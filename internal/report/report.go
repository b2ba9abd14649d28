// Package report summarizes an outcome log for humans.
package report

import (
	"io"

	"mytimetable-scraper/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Tally struct {
	Ok            int
	ResolveFail   int
	ClassDataFail int
	// Skipped counts unreadable log lines.
	Skipped int
}

func (t Tally) Total() int {
	return t.Ok + t.ResolveFail + t.ClassDataFail
}

func Count(outcomes []store.Outcome, skipped int) Tally {
	tally := Tally{Skipped: skipped}
	for _, o := range outcomes {
		switch {
		case o.Ok:
			tally.Ok++
		case o.Stage == store.StageResolve:
			tally.ResolveFail++
		default:
			tally.ClassDataFail++
		}
	}
	return tally
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func RenderTally(w io.Writer, title string, tally Tally) {
	t := newTable(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Ok", "Resolve failed", "Class-data failed", "Total", "Unreadable lines"})
	t.AppendRow(table.Row{tally.Ok, tally.ResolveFail, tally.ClassDataFail, tally.Total(), tally.Skipped})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

// RenderFailures lists every failed course in log order.
func RenderFailures(w io.Writer, outcomes []store.Outcome) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Course", "Stage", "Key", "Error"})
	for _, o := range outcomes {
		if o.Ok {
			continue
		}
		t.AppendRow(table.Row{o.Course, o.Stage, o.CnKey, o.Error})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
	})
	t.Render()
}

// RenderRun prints the final counts of a scrape run.
func RenderRun(w io.Writer, runId string, ok, fail, skipped int) {
	t := newTable(w)
	t.SetTitle("run " + runId)
	t.AppendHeader(table.Row{"Ok", "Failed", "Total", "Skipped"})
	t.AppendRow(table.Row{ok, fail, ok + fail, skipped})
	t.Render()
}
