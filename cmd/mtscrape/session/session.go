// Package session wires a browser, the outbound gate and the timetable
// client together for the commands that talk to the site.
package session

import (
	"context"

	"mytimetable-scraper/cmd/mtscrape/globals"
	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/components/chrono"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/gate"
	"mytimetable-scraper/internal/scrapers/mytimetable"
)

type Session struct {
	Client  *mytimetable.Client
	Gate    *gate.Gate
	browser *browser.Rod
}

// Open starts (or attaches to) the browser. A denied request cancels the
// command's context with the *gate.BlockedError as its cause.
func Open(ctx context.Context, value *globals.Value, dumpDir string) (*Session, error) {
	cfg := value.Config

	g := gate.New(gate.NewPolicy(cfg.BaseUrl), value.Tel, func(err *gate.BlockedError) {
		value.Cancel(err)
	})

	var dump telemetry.InstrumentOutput
	if dumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(dumpDir)
		if err != nil {
			return nil, err
		}
		dump = output
	}

	rod, err := browser.Open(ctx, browser.Options{
		ControlUrl:        cfg.Browser.ControlUrl,
		Bin:               cfg.Browser.Bin,
		Headed:            cfg.Browser.Headed,
		StorageState:      cfg.Browser.StorageState,
		NavigationTimeout: cfg.Browser.NavigationTimeout(),
		RequestTimeout:    cfg.Browser.RequestTimeout(),
		RequestsPerSecond: cfg.RateLimit(),
		HttpDump:          dump,
	}, g, value.Tel)
	if err != nil {
		return nil, err
	}

	client := mytimetable.NewClient(mytimetable.Site{
		BaseUrl:      cfg.BaseUrl,
		Term:         cfg.Term.Id,
		TermLinkText: cfg.Term.LinkText,
		Cams:         cfg.Term.Cams,
	}, rod, value.Tel, chrono.NewStandardTime())

	return &Session{Client: client, Gate: g, browser: rod}, nil
}

func (s *Session) Close() {
	s.browser.Close()
}

// Lazy opens the browser on the first Prime, so runs with nothing left to do
// never start one.
type Lazy struct {
	open    func() (*Session, error)
	session *Session
}

func NewLazy(ctx context.Context, value *globals.Value, dumpDir string) *Lazy {
	return &Lazy{open: func() (*Session, error) {
		return Open(ctx, value, dumpDir)
	}}
}

func (l *Lazy) Prime(ctx context.Context) (mytimetable.Session, error) {
	if l.session == nil {
		s, err := l.open()
		if err != nil {
			return mytimetable.Session{}, err
		}
		l.session = s
	}
	return l.session.Client.Prime(ctx)
}

func (l *Lazy) Resolve(ctx context.Context, course string) (mytimetable.Identity, error) {
	return l.session.Client.Resolve(ctx, course)
}

func (l *Lazy) Fetch(ctx context.Context, sess mytimetable.Session, id mytimetable.Identity) (mytimetable.FetchResult, mytimetable.Session, error) {
	return l.session.Client.Fetch(ctx, sess, id)
}

func (l *Lazy) Close() {
	if l.session != nil {
		l.session.Close()
	}
}
