// Package mytimetabletest simulates a MyTimetable deployment behind a
// browsertest.Fake.
package mytimetabletest

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/browser/browsertest"
)

const (
	BaseUrl = "https://mytimetable.example.edu"
	Term    = "3202610"

	StaleBody         = "<errors><error>Check your computer's timezone and time settings.</error></errors>"
	NotAuthorizedBody = "<errors><error>Error 7133: Not Authorized</error></errors>"
)

// ClassDataBody is a minimal successful class-data payload.
func ClassDataBody(cnKey string) string {
	return fmt.Sprintf(`<addcourse><classdata><course key="%s"/></classdata></addcourse>`, cnKey)
}

// ErrorBody is a class-data payload carrying a content error.
func ErrorBody(msg string) string {
	return "<errors><error>" + msg + "</error></errors>"
}

func SuggestionsBody(labels ...string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><add_suggest><results>`)
	for _, l := range labels {
		sb.WriteString(`<rs info="">`)
		sb.WriteString(html.EscapeString(l))
		sb.WriteString(`</rs>`)
	}
	sb.WriteString(`</results></add_suggest>`)
	return sb.String()
}

// Site answers the endpoints a scraping run touches. Zero values give an
// empty site.
type Site struct {
	// Fills are returned by successive suggestion listings, listings past
	// the last fill are empty.
	Fills [][]string
	// Resolver maps course codes to resolver JSON bodies, unknown courses
	// resolve to "[]".
	Resolver map[string]string
	// ResolveErr makes resolving a course fail at the transport level.
	ResolveErr map[string]error
	// ClassData maps cnKey to successive class-data bodies, the last body
	// repeats. Unknown keys answer ClassDataBody.
	ClassData map[string][]string
	// CaptureErr makes the page never issue a class-data request.
	CaptureErr error

	mutex       sync.Mutex
	fills       int
	captures    []string
	fetches     map[string]int
	tokenSerial int
}

// Resolves returns a resolver body for a single match.
func Resolves(cnKey, va string) string {
	return fmt.Sprintf(`[{"cnKey":%q,"va":%q}]`, cnKey, va)
}

// Captures returns the labels templates were captured with.
func (s *Site) Captures() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.captures...)
}

func (s *Site) Fetches(cnKey string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fetches[cnKey]
}

func (s *Site) SuggestionListings() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.fills
}

// Fake returns an Automation wired to the site.
func (s *Site) Fake() *browsertest.Fake {
	return &browsertest.Fake{
		OnSubmit: s.submit,
		OnGet:    s.get,
		OnPost:   s.post,
	}
}

func (s *Site) submit(role, name, value string) ([]browser.Request, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.CaptureErr != nil {
		return nil, s.CaptureErr
	}
	s.captures = append(s.captures, value)
	s.tokenSerial++

	query := url.Values{}
	query.Set("term", Term)
	query.Set("t", fmt.Sprintf("token-%d", s.tokenSerial))
	query.Set("e", fmt.Sprintf("exp-%d", s.tokenSerial))
	query.Set("course_0_0", "loaded-"+value)
	query.Set("va_0_0", "loaded-va")
	query.Set("rq_0_0", "")
	query.Set("nouser", "1")
	query.Set("_", "1700000000000")
	return []browser.Request{
		{Method: "GET", Url: BaseUrl + "/api/courses/suggestions?term=" + Term},
		{Method: "GET", Url: BaseUrl + "/api/class-data?" + query.Encode()},
	}, nil
}

func (s *Site) get(rawUrl string, headers map[string]string) (browser.Response, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return browser.Response{}, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	switch u.Path {
	case "/api/courses/suggestions":
		var labels []string
		if s.fills < len(s.Fills) {
			labels = s.Fills[s.fills]
		}
		s.fills++
		return browser.Response{Status: 200, Body: []byte(SuggestionsBody(labels...))}, nil
	case "/api/class-data":
		cnKey := u.Query().Get("course_0_0")
		if s.fetches == nil {
			s.fetches = map[string]int{}
		}
		n := s.fetches[cnKey]
		s.fetches[cnKey]++

		bodies := s.ClassData[cnKey]
		if len(bodies) == 0 {
			return browser.Response{Status: 200, Body: []byte(ClassDataBody(cnKey))}, nil
		}
		if n >= len(bodies) {
			n = len(bodies) - 1
		}
		return browser.Response{Status: 200, Body: []byte(bodies[n])}, nil
	}
	return browser.Response{Status: 404}, nil
}

func (s *Site) post(rawUrl string, form, headers map[string]string) (browser.Response, error) {
	if !strings.HasSuffix(rawUrl, "/api/string-to-filter") {
		return browser.Response{Status: 404}, nil
	}
	course := form["itemnames"]
	if err := s.ResolveErr[course]; err != nil {
		return browser.Response{}, err
	}
	body, ok := s.Resolver[course]
	if !ok {
		body = "[]"
	}
	return browser.Response{Status: 200, Body: []byte(body)}, nil
}
