// Package browser is the automation collaborator: it drives a logged-in
// browser page and issues API requests with the page's session.
package browser

import (
	"context"
	"strings"
)

type Request struct {
	Method string
	Url    string
}

type Response struct {
	Url    string
	Status int
	Body   []byte
}

func (r Response) Text() string {
	return string(r.Body)
}

// Automation is the narrow contract the scrapers rely on. All calls are
// issued sequentially by a single caller.
type Automation interface {
	Navigate(ctx context.Context, url string) error
	// ClickByRole clicks the first element with the given ARIA role whose
	// accessible name contains name (case insensitive).
	ClickByRole(ctx context.Context, role, name string) error
	// FillAndSubmit types value into the element found like ClickByRole and
	// presses Enter.
	FillAndSubmit(ctx context.Context, role, name, value string) error
	// AwaitRequest arms a waiter for the next request the page issues that
	// satisfies match. The waiter is armed when AwaitRequest returns, the
	// returned function blocks until the request is observed.
	AwaitRequest(ctx context.Context, match func(Request) bool) func() (Request, error)

	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
	PostForm(ctx context.Context, url string, form map[string]string, headers map[string]string) (Response, error)
}

// UrlContains matches requests whose url contains substr.
func UrlContains(substr string) func(Request) bool {
	return func(req Request) bool {
		return strings.Contains(req.Url, substr)
	}
}
