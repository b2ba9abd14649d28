package mytimetable

import (
	"errors"
	"fmt"

	"mytimetable-scraper/internal/browser"
)

var (
	// ErrCapture means no usable class-data request could be observed.
	ErrCapture = errors.New("template capture failed")
	// ErrNoSuggestions means the listing endpoint returned no labels, so
	// there is nothing to trigger a capture with.
	ErrNoSuggestions = errors.New("no course suggestions available")
	// ErrNotAuthorized means the session behind the browser has expired.
	ErrNotAuthorized = errors.New("not authorized (session expired)")
)

// ResolveError is a per-course resolver failure, the run continues past it.
type ResolveError struct {
	Course string
	Reason string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.Course, e.Reason)
}

// Site describes the timetable deployment and the term being scraped.
type Site struct {
	// BaseUrl has no trailing slash, ex. "https://mytimetable.mcmaster.ca".
	BaseUrl      string
	Term         string
	TermLinkText string
	Cams         string
}

func (s Site) url(path string) string {
	return s.BaseUrl + path
}

// Identity is what the resolver maps a course code to. Va is passed through
// unchanged.
type Identity struct {
	CnKey string
	Va    string
}

// Template is a sanitized class-data request, it carries the session tokens
// (t, e) observed in a real request made by the page.
type Template struct {
	BaseUrl string
	Params  map[string]string
}

// Session is the mutable state of a run, it is replaced wholesale by the
// operations that change it.
type Session struct {
	Template Template
	Pool     Pool
}

type FetchState int

const (
	Fetching FetchState = iota
	Succeeded
	// TokenStale is final only when the retried response was stale too.
	TokenStale
	Recapturing
	NotAuthorized
)

func (s FetchState) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Succeeded:
		return "succeeded"
	case TokenStale:
		return "token-stale"
	case Recapturing:
		return "recapturing"
	case NotAuthorized:
		return "not-authorized"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type FetchResult struct {
	Response browser.Response
	// Attempts is 1, or 2 when the first response carried a stale token.
	Attempts   int
	Recaptured bool
	State      FetchState
}
