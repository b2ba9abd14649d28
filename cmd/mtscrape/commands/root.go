package commands

import (
	"context"
	"fmt"
	"os"

	"mytimetable-scraper/cmd/mtscrape/commands/probe"
	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/config"
	"mytimetable-scraper/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	shutdown   func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:           "mtscrape",
	Short:         "mtscrape downloads per-course class data from MyTimetable using a logged-in browser session.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		cfg, err := config.Read(configPath)
		if err != nil {
			return err
		}

		t, err := telemetry.Setup(cmd.Context(), "mtscrape", cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		shutdown = t.Shutdown

		value := globals.Get(cmd.Context())
		value.Config = cfg
		value.Tel = telemetry.SlogAPI{}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "config file, a .local variant next to it overrides it")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages")

	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(probe.RootCmd)
}

func Execute() {
	ctx, cancel := serviceutil.SignalContext()
	defer cancel(nil)
	ctx = globals.Set(ctx, &globals.Value{Cancel: cancel})

	err := rootCmd.ExecuteContext(ctx)
	if shutdown != nil {
		shutdownErr := shutdown(context.Background())
		if shutdownErr != nil {
			fmt.Fprintln(os.Stderr, "shutdown telemetry:", shutdownErr)
		}
	}
	if err != nil {
		cancel(nil)
		serviceutil.Fatal("mtscrape failed", err)
	}
}
