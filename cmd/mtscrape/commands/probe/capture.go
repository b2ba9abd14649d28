package probe

import (
	"fmt"
	"os"
	"sort"
	"time"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/cmd/mtscrape/session"
	"mytimetable-scraper/internal/scrapers/mytimetable"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture [label]",
	Short: "Captures a class-data template, using the first suggestion when no label is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		s, err := session.Open(ctx, value, dumpDir)
		if err != nil {
			return err
		}
		defer s.Close()

		var label string
		if len(args) > 0 {
			label = args[0]
		} else {
			label, _, err = mytimetable.Pool{}.Next(ctx, s.Client)
			if err != nil {
				return err
			}
		}

		tpl, err := s.Client.Capture(ctx, label)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(tpl.Params))
		for key := range tpl.Params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(tpl.BaseUrl)
		t.AppendHeader(table.Row{"Param", "Value"})
		for _, key := range keys {
			t.AppendRow(table.Row{key, tpl.Params[key]})
		}
		t.Render()

		example := mytimetable.Build(tpl, value.Config.Term.Id, mytimetable.Identity{CnKey: "<cnKey>", Va: "<va>"}, time.Now())
		fmt.Println(example)
		return nil
	},
}
