package mytimetable

import (
	"context"
	"fmt"

	"mytimetable-scraper/internal/browser"
)

// Prime fills the suggestion pool and captures the first template of a run.
func (c *Client) Prime(ctx context.Context) (Session, error) {
	label, pool, err := Pool{}.Next(ctx, c)
	if err != nil {
		return Session{}, err
	}
	tpl, err := c.Capture(ctx, label)
	if err != nil {
		return Session{}, err
	}
	return Session{Template: tpl, Pool: pool}, nil
}

// Recapture replaces the session's template using the next pooled label.
func (c *Client) Recapture(ctx context.Context, sess Session) (Session, error) {
	label, pool, err := sess.Pool.Next(ctx, c)
	if err != nil {
		return sess, err
	}
	tpl, err := c.Capture(ctx, label)
	if err != nil {
		return Session{Template: sess.Template, Pool: pool}, err
	}
	return Session{Template: tpl, Pool: pool}, nil
}

func (c *Client) get(ctx context.Context, tpl Template, id Identity) (browser.Response, error) {
	res, err := c.Browser.Get(ctx, Build(tpl, c.Site.Term, id, c.time.Now()), map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Referer":          c.Site.url("/criteria.jsp"),
	})
	if err != nil {
		c.tel.ReportBroken(report_client_fetch, id.CnKey, err)
		return browser.Response{}, fmt.Errorf("class-data %s: %w", id.CnKey, err)
	}
	return res, nil
}

// Fetch retrieves the class data of one course. A stale token triggers
// exactly one recapture and retry, whose response stands whatever it says.
// A not-authorized response is returned along with an error wrapping
// ErrNotAuthorized so the caller can still record it.
func (c *Client) Fetch(ctx context.Context, sess Session, id Identity) (FetchResult, Session, error) {
	result := FetchResult{State: Fetching}

	res, err := c.get(ctx, sess.Template, id)
	if err != nil {
		return result, sess, err
	}
	result.Attempts = 1

	if c.Classifier.StaleToken(res.Text()) {
		c.tel.ReportInfo("stale token, recapturing template", "cnKey", id.CnKey)

		result.State = Recapturing
		sess, err = c.Recapture(ctx, sess)
		if err != nil {
			return result, sess, err
		}
		result.Recaptured = true

		result.State = Fetching
		res, err = c.get(ctx, sess.Template, id)
		if err != nil {
			return result, sess, err
		}
		result.Attempts = 2
	}

	result.Response = res
	if c.Classifier.NotAuthorized(res.Text()) {
		result.State = NotAuthorized
		return result, sess, fmt.Errorf("class-data %s: %w", id.CnKey, ErrNotAuthorized)
	}
	if result.Recaptured && c.Classifier.StaleToken(res.Text()) {
		result.State = TokenStale
		return result, sess, nil
	}
	result.State = Succeeded
	return result, sess, nil
}
