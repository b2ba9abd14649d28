package probe

import (
	"fmt"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/cmd/mtscrape/session"

	"github.com/spf13/cobra"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Prints the course labels the course picker offers for the term.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := session.Open(ctx, globals.Get(ctx), dumpDir)
		if err != nil {
			return err
		}
		defer s.Close()

		labels, err := s.Client.Suggestions(ctx)
		if err != nil {
			return err
		}
		for _, label := range labels {
			fmt.Println(label)
		}
		fmt.Printf("%d suggestions\n", len(labels))
		return nil
	},
}
