// Package mytimetable scrapes per-course class data from a MyTimetable
// deployment through a logged-in browser session.
package mytimetable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/components/assert"
	"mytimetable-scraper/internal/components/chrono"
	"mytimetable-scraper/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	report_client_suggestions = "client.suggestions"
	report_client_resolve     = "client.resolve"
	report_client_capture     = "client.capture"
	report_client_fetch       = "client.fetch"
)

var xhrHeaders = map[string]string{
	"X-Requested-With": "XMLHttpRequest",
}

type Client struct {
	Site       Site
	Browser    browser.Automation
	Classifier ResponseClassifier

	tel  telemetry.API
	time chrono.TimeAPI
}

func NewClient(site Site, auto browser.Automation, tel telemetry.API, clock chrono.TimeAPI) *Client {
	assert.NotNil(auto)
	assert.NotNil(tel)
	assert.NotNil(clock)
	assert.NotEmptyStr(site.BaseUrl)
	assert.NotEmptyStr(site.Term)

	site.BaseUrl = strings.TrimSuffix(site.BaseUrl, "/")
	return &Client{
		Site:       site,
		Browser:    auto,
		Classifier: DefaultClassifier,
		tel:        telemetry.NewScopedAPI("mytimetable", tel),
		time:       clock,
	}
}

func (c *Client) nowMillis() string {
	return strconv.FormatInt(c.time.Now().UnixMilli(), 10)
}

// Suggestions lists the course labels the course picker offers for the term.
func (c *Client) Suggestions(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("term", c.Site.Term)
	query.Set("cams", c.Site.Cams)
	query.Set("course_add", "a")
	query.Set("page_num", "0")
	query.Set("sco", "0")
	query.Set("sio", "1")
	query.Set("already", "")
	query.Set("_", c.nowMillis())

	res, err := c.Browser.Get(ctx, c.Site.url("/api/courses/suggestions?"+query.Encode()), xhrHeaders)
	if err != nil {
		c.tel.ReportBroken(report_client_suggestions, err)
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	if res.Status != 200 {
		err = fmt.Errorf("suggestions endpoint returned HTTP %d", res.Status)
		c.tel.ReportBroken(report_client_suggestions, err)
		return nil, err
	}
	return ParseSuggestions(res.Body)
}

// ParseSuggestions extracts the labels of an add_suggest listing.
func ParseSuggestions(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}
	var labels []string
	doc.Find("add_suggest > results > rs").Each(func(_ int, s *goquery.Selection) {
		var text strings.Builder
		for _, n := range s.Nodes {
			writeXmlText(&text, n)
		}
		label := strings.TrimSpace(text.String())
		if label != "" {
			labels = append(labels, label)
		}
	})
	return labels, nil
}

// writeXmlText is Selection.Text that also keeps CDATA sections, which the
// html parser turns into comments.
func writeXmlText(out *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out.WriteString(c.Data)
		case html.CommentNode:
			inner, ok := strings.CutPrefix(c.Data, "[CDATA[")
			if ok {
				out.WriteString(strings.TrimSuffix(inner, "]]"))
			}
		case html.ElementNode:
			writeXmlText(out, c)
		}
	}
}

type resolverEntry struct {
	CnKey json.RawMessage `json:"cnKey"`
	Va    json.RawMessage `json:"va"`
	Error json.RawMessage `json:"error"`
}

// Resolve maps a human course code to its internal identity. Only the first
// resolver match is used. A *ResolveError is returned when the resolver has
// no usable answer, any other error means the request itself failed.
func (c *Client) Resolve(ctx context.Context, course string) (Identity, error) {
	res, err := c.Browser.PostForm(ctx, c.Site.url("/api/string-to-filter"), map[string]string{
		"term":        c.Site.Term,
		"validations": "",
		"itemnames":   course,
		"input":       strings.ToLower(course),
		"reason":      "CODE_NUMBER",
		"current":     "",
		"isimport":    "0",
		"strict":      "0",
	}, xhrHeaders)
	if err != nil {
		c.tel.ReportBroken(report_client_resolve, course, err)
		return Identity{}, fmt.Errorf("resolve %s: %w", course, err)
	}

	var entries []json.RawMessage
	err = json.Unmarshal(res.Body, &entries)
	if err != nil {
		c.tel.ReportBroken(report_client_resolve, course, fmt.Errorf("HTTP %d: %w", res.Status, err))
		return Identity{}, fmt.Errorf("resolve %s: decode response: %w", course, err)
	}
	if len(entries) == 0 || isNull(entries[0]) {
		return Identity{}, &ResolveError{Course: course, Reason: "No resolver result"}
	}

	var first resolverEntry
	err = json.Unmarshal(entries[0], &first)
	if err != nil {
		return Identity{}, &ResolveError{Course: course, Reason: "No resolver result"}
	}
	if truthy(first.Error) {
		return Identity{}, &ResolveError{Course: course, Reason: stringify(first.Error)}
	}

	return Identity{
		CnKey: stringify(first.CnKey),
		Va:    stringify(first.Va),
	}, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return false
	}
	return true
}

// stringify renders strings without quotes and anything else as its JSON text.
func stringify(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return s
	}
	return string(trimmed)
}
