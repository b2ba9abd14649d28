// Package browsertest provides a scripted, in-memory browser.Automation.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/gate"
)

var ErrNoRequest = errors.New("browsertest: no matching request observed")

type CallKind string

const (
	CallNavigate CallKind = "navigate"
	CallClick    CallKind = "click"
	CallSubmit   CallKind = "submit"
	CallGet      CallKind = "get"
	CallPost     CallKind = "post"
)

type Call struct {
	Kind    CallKind
	Url     string
	Role    string
	Name    string
	Value   string
	Form    map[string]string
	Headers map[string]string
}

// Fake records every call and answers them with its handler funcs. A nil
// handler makes the call succeed with an empty 200 response.
type Fake struct {
	// Gate, when set, is consulted before every Get and PostForm like the
	// real client middleware does.
	Gate *gate.Gate

	OnNavigate func(url string) error
	OnClick    func(role, name string) error
	// OnSubmit returns the requests the page issues when value is submitted.
	OnSubmit func(role, name, value string) ([]browser.Request, error)
	OnGet    func(url string, headers map[string]string) (browser.Response, error)
	OnPost   func(url string, form, headers map[string]string) (browser.Response, error)

	mutex   sync.Mutex
	calls   []Call
	waiters []*waiter
}

var _ browser.Automation = (*Fake)(nil)

type waiter struct {
	match    func(browser.Request) bool
	observed *browser.Request
}

func (f *Fake) record(call Call) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns the recorded calls, optionally filtered by kind.
func (f *Fake) Calls(kinds ...CallKind) []Call {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(kinds) == 0 {
		return append([]Call(nil), f.calls...)
	}
	var out []Call
	for _, c := range f.calls {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	f.record(Call{Kind: CallNavigate, Url: url})
	if f.OnNavigate != nil {
		return f.OnNavigate(url)
	}
	return nil
}

func (f *Fake) ClickByRole(ctx context.Context, role, name string) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	f.record(Call{Kind: CallClick, Role: role, Name: name})
	if f.OnClick != nil {
		return f.OnClick(role, name)
	}
	return nil
}

func (f *Fake) FillAndSubmit(ctx context.Context, role, name, value string) error {
	if err := context.Cause(ctx); err != nil {
		return err
	}
	f.record(Call{Kind: CallSubmit, Role: role, Name: name, Value: value})
	if f.OnSubmit == nil {
		return nil
	}
	requests, err := f.OnSubmit(role, name, value)
	for _, req := range requests {
		f.observe(req)
	}
	return err
}

// Emit delivers a request to armed waiters as if the page had issued it.
func (f *Fake) Emit(req browser.Request) {
	f.observe(req)
}

func (f *Fake) observe(req browser.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, w := range f.waiters {
		if w.observed == nil && w.match(req) {
			observed := req
			w.observed = &observed
		}
	}
}

func (f *Fake) AwaitRequest(ctx context.Context, match func(browser.Request) bool) func() (browser.Request, error) {
	w := &waiter{match: match}
	f.mutex.Lock()
	f.waiters = append(f.waiters, w)
	f.mutex.Unlock()

	return func() (browser.Request, error) {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		for i, armed := range f.waiters {
			if armed == w {
				f.waiters = append(f.waiters[:i], f.waiters[i+1:]...)
				break
			}
		}
		if err := context.Cause(ctx); err != nil {
			return browser.Request{}, fmt.Errorf("await request: %w", err)
		}
		if w.observed == nil {
			return browser.Request{}, ErrNoRequest
		}
		return *w.observed, nil
	}
}

func (f *Fake) Get(ctx context.Context, url string, headers map[string]string) (browser.Response, error) {
	if err := context.Cause(ctx); err != nil {
		return browser.Response{}, err
	}
	f.record(Call{Kind: CallGet, Url: url, Headers: maps.Clone(headers)})
	if f.Gate != nil {
		if err := f.Gate.Check("GET", url); err != nil {
			return browser.Response{}, err
		}
	}
	if f.OnGet == nil {
		return browser.Response{Url: url, Status: 200}, nil
	}
	res, err := f.OnGet(url, headers)
	res.Url = url
	return res, err
}

func (f *Fake) PostForm(ctx context.Context, url string, form, headers map[string]string) (browser.Response, error) {
	if err := context.Cause(ctx); err != nil {
		return browser.Response{}, err
	}
	f.record(Call{Kind: CallPost, Url: url, Form: maps.Clone(form), Headers: maps.Clone(headers)})
	if f.Gate != nil {
		if err := f.Gate.Check("POST", url); err != nil {
			return browser.Response{}, err
		}
	}
	if f.OnPost == nil {
		return browser.Response{Url: url, Status: 200}, nil
	}
	res, err := f.OnPost(url, form, headers)
	res.Url = url
	return res, err
}
