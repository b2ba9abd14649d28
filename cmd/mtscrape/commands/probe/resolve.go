package probe

import (
	"errors"
	"fmt"
	"strings"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/cmd/mtscrape/session"
	"mytimetable-scraper/internal/scrapers/mytimetable"
	"mytimetable-scraper/lib/textutil"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <course code>",
	Short: "Resolves one course code, ex. 'COMPSCI 1MD3', to its internal key.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		course := textutil.CollapseWhitespace(strings.Join(args, " "))

		s, err := session.Open(ctx, globals.Get(ctx), dumpDir)
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := s.Client.Resolve(ctx, course)
		var resolveErr *mytimetable.ResolveError
		if errors.As(err, &resolveErr) {
			fmt.Printf("%s: %s\n", course, resolveErr.Reason)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s: cnKey=%s va=%s\n", course, id.CnKey, id.Va)
		return nil
	},
}
