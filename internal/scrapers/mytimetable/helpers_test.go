package mytimetable_test

import (
	"testing"
	"time"

	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/components/chrono"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/scrapers/mytimetable"
	"mytimetable-scraper/internal/scrapers/mytimetable/mytimetabletest"
)

var testSite = mytimetable.Site{
	BaseUrl:      mytimetabletest.BaseUrl,
	Term:         mytimetabletest.Term,
	TermLinkText: "Winter",
	Cams:         "MCMSTiOFF_MCMSTiMCMST",
}

var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func newClient(t *testing.T, auto browser.Automation) (*mytimetable.Client, *telemetry.RecorderAPI) {
	t.Helper()
	rec := telemetry.NewRecorderAPI()
	return mytimetable.NewClient(testSite, auto, rec, chrono.NewFakeTime(epoch)), rec
}
