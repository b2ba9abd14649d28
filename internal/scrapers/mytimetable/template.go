package mytimetable

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"mytimetable-scraper/internal/browser"
)

// courseScopedParam matches the params that describe the courses currently
// loaded in the page.
var courseScopedParam = regexp.MustCompile(`^(course|va|rq)_\d+_\d+$`)

// SanitizeParams keeps the last value of every query param, minus the
// course-scoped ones and the guest override.
func SanitizeParams(query url.Values) map[string]string {
	out := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) == 0 || courseScopedParam.MatchString(key) || key == "nouser" {
			continue
		}
		out[key] = values[len(values)-1]
	}
	return out
}

// ParseTemplate turns an observed class-data request url into a Template.
func ParseTemplate(rawUrl string) (Template, error) {
	u, err := url.Parse(rawUrl)
	if err != nil {
		return Template{}, err
	}
	if u.Scheme == "" || u.Host == "" {
		return Template{}, fmt.Errorf("not an absolute url: %q", rawUrl)
	}
	return Template{
		BaseUrl: u.Scheme + "://" + u.Host + u.Path,
		Params:  SanitizeParams(u.Query()),
	}, nil
}

// Capture makes the page issue a real class-data request by picking label in
// the course picker, and keeps that request's params as the new template.
func (c *Client) Capture(ctx context.Context, label string) (Template, error) {
	tpl, err := c.capture(ctx, label)
	if err != nil {
		c.tel.ReportBroken(report_client_capture, label, err)
		return Template{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	c.tel.ReportDebug("captured template", "label", label, "params", len(tpl.Params))
	return tpl, nil
}

func (c *Client) capture(ctx context.Context, label string) (Template, error) {
	err := c.Browser.Navigate(ctx, c.Site.url("/criteria.jsp"))
	if err != nil {
		return Template{}, err
	}
	err = c.Browser.ClickByRole(ctx, "link", c.Site.TermLinkText)
	if err != nil {
		return Template{}, err
	}

	wait := c.Browser.AwaitRequest(ctx, browser.UrlContains("/api/class-data"))
	err = c.Browser.FillAndSubmit(ctx, "combobox", "Select Course", label)
	if err != nil {
		return Template{}, err
	}
	req, err := wait()
	if err != nil {
		return Template{}, err
	}
	return ParseTemplate(req.Url)
}

// Build renders the class-data url for a single course. The template is not
// modified, and params are encoded in key order so the result only depends
// on the arguments.
func Build(tpl Template, term string, id Identity, now time.Time) string {
	params := maps.Clone(tpl.Params)
	if params == nil {
		params = map[string]string{}
	}
	params["term"] = term
	params["course_0_0"] = id.CnKey
	params["va_0_0"] = id.Va
	params["rq_0_0"] = ""
	params["_"] = strconv.FormatInt(now.UnixMilli(), 10)

	query := make(url.Values, len(params))
	for key, value := range params {
		query.Set(key, value)
	}
	return tpl.BaseUrl + "?" + query.Encode()
}
