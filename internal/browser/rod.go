package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"mytimetable-scraper/internal/components/assert"
	"mytimetable-scraper/internal/components/telemetry"
	"mytimetable-scraper/internal/gate"

	"github.com/go-resty/resty/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/time/rate"
)

const (
	report_rod_open          = "rod.open"
	report_rod_storage_state = "rod.storage-state"
	report_rod_intercept     = "rod.intercept"
	report_rod_cookies       = "rod.cookies"
)

type Options struct {
	// ControlUrl attaches to a running browser instead of launching one.
	ControlUrl string
	Bin        string
	Headed     bool
	// StorageState is optional, a missing file only produces a warning.
	StorageState string

	NavigationTimeout time.Duration
	RequestTimeout    time.Duration
	// RequestsPerSecond bounds the API client, 0 means unbounded.
	RequestsPerSecond float64
	// HttpDump receives every API request/response pair when non-nil.
	HttpDump telemetry.InstrumentOutput
}

// Rod is an Automation backed by a go-rod page. Page traffic is intercepted
// by a hijack router and API calls go through a resty client that carries the
// page's cookies, both guarded by the same gate.
type Rod struct {
	opts    Options
	tel     telemetry.API
	gate    *gate.Gate
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	http    *resty.Client
}

var _ Automation = (*Rod)(nil)

func Open(ctx context.Context, opts Options, g *gate.Gate, tel telemetry.API) (*Rod, error) {
	assert.NotNil(g)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("browser", tel)

	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	r := &Rod{opts: opts, tel: tel, gate: g}
	err := r.open(ctx)
	if err != nil {
		tel.ReportBroken(report_rod_open, err)
		r.Close()
		return nil, fmt.Errorf("open browser: %w", err)
	}
	return r, nil
}

func (r *Rod) open(ctx context.Context) error {
	controlUrl := r.opts.ControlUrl
	if controlUrl == "" {
		r.launch = launcher.New().Context(ctx).Headless(!r.opts.Headed)
		if r.opts.Bin != "" {
			r.launch = r.launch.Bin(r.opts.Bin)
		}
		u, err := r.launch.Launch()
		if err != nil {
			return fmt.Errorf("launch: %w", err)
		}
		controlUrl = u
	}

	r.browser = rod.New().ControlURL(controlUrl).Context(ctx)
	err := r.browser.Connect()
	if err != nil {
		r.browser = nil
		return fmt.Errorf("connect %s: %w", controlUrl, err)
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	r.page = page

	if r.opts.StorageState != "" {
		cookies, err := ReadStorageState(r.opts.StorageState)
		switch {
		case errors.Is(err, os.ErrNotExist):
			r.tel.ReportWarning(report_rod_storage_state, fmt.Errorf("%s does not exist, continuing with the browser's own session", r.opts.StorageState))
		case err != nil:
			return err
		default:
			err = page.SetCookies(cookies)
			if err != nil {
				return fmt.Errorf("set cookies: %w", err)
			}
		}
	}

	r.router = page.HijackRequests()
	err = r.router.Add("*", "", r.intercept)
	if err != nil {
		return fmt.Errorf("hijack: %w", err)
	}
	go r.router.Run()

	userAgent := ""
	version, err := r.browser.Version()
	if err == nil {
		userAgent = version.UserAgent
	}
	r.http = r.newHttpClient(userAgent)
	return nil
}

func (r *Rod) intercept(h *rod.Hijack) {
	err := r.gate.Check(h.Request.Method(), h.Request.URL().String())
	if err != nil {
		r.tel.ReportDebug(report_rod_intercept, err)
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		return
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

func (r *Rod) newHttpClient(userAgent string) *resty.Client {
	client := resty.New()
	client.SetTimeout(r.opts.RequestTimeout)
	if userAgent != "" {
		client.SetHeader("user-agent", userAgent)
	}

	r.gate.InstallResty(client)

	if r.opts.RequestsPerSecond > 0 {
		burst := int(r.opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(r.opts.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	// the session lives in the page, so cookies are read fresh for every call
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		cookies, err := r.page.Cookies([]string{req.URL})
		if err != nil {
			r.tel.ReportBroken(report_rod_cookies, err)
			return fmt.Errorf("read page cookies: %w", err)
		}
		for _, c := range cookies {
			req.SetCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
		return nil
	})

	telemetry.InstrumentResty(client, r.tel, r.opts.HttpDump)
	return client
}

func (r *Rod) Navigate(ctx context.Context, url string) error {
	page := r.page.Context(ctx).Timeout(r.opts.NavigationTimeout)
	defer page.CancelTimeout()

	err := page.Navigate(url)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	err = page.WaitLoad()
	if err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

// findByRole resolves the accessible name from aria-label, aria-labelledby,
// associated labels, placeholder, title and text content.
const findByRole = `(role, name) => {
	const implicit = {
		link: "a[href]",
		button: "button, input[type=button], input[type=submit]",
		combobox: "select, input[list], input[type=text], input:not([type])",
		textbox: "input[type=text], input:not([type]), textarea",
	};
	let selector = '[role="' + role + '"]';
	if (implicit[role]) {
		selector += ", " + implicit[role];
	}
	const want = name.toLowerCase();
	const names = (el) => {
		const out = [el.getAttribute("aria-label")];
		const by = el.getAttribute("aria-labelledby");
		if (by) {
			for (const id of by.split(/\s+/)) {
				const label = document.getElementById(id);
				if (label) out.push(label.textContent);
			}
		}
		if (el.labels) {
			for (const label of el.labels) out.push(label.textContent);
		}
		out.push(el.getAttribute("placeholder"), el.getAttribute("title"), el.textContent);
		return out.filter(Boolean).map((s) => s.replace(/\s+/g, " ").trim().toLowerCase());
	};
	for (const el of document.querySelectorAll(selector)) {
		if (names(el).some((n) => n.includes(want))) return el;
	}
	return null;
}`

func (r *Rod) element(ctx context.Context, role, name string) (*rod.Element, error) {
	page := r.page.Context(ctx).Timeout(r.opts.NavigationTimeout)
	defer page.CancelTimeout()

	el, err := page.ElementByJS(rod.Eval(findByRole, role, name))
	if err != nil {
		return nil, fmt.Errorf("find %s %q: %w", role, name, err)
	}
	// the lookup timeout ends here, the element acts under the caller's ctx
	return el.Context(ctx), nil
}

func (r *Rod) ClickByRole(ctx context.Context, role, name string) error {
	el, err := r.element(ctx, role, name)
	if err != nil {
		return err
	}
	err = el.Click(proto.InputMouseButtonLeft, 1)
	if err != nil {
		return fmt.Errorf("click %s %q: %w", role, name, err)
	}
	return nil
}

func (r *Rod) FillAndSubmit(ctx context.Context, role, name, value string) error {
	el, err := r.element(ctx, role, name)
	if err != nil {
		return err
	}
	err = el.Input(value)
	if err != nil {
		return fmt.Errorf("fill %s %q: %w", role, name, err)
	}
	err = el.Type(input.Enter)
	if err != nil {
		return fmt.Errorf("submit %s %q: %w", role, name, err)
	}
	return nil
}

func (r *Rod) AwaitRequest(ctx context.Context, match func(Request) bool) func() (Request, error) {
	waitCtx, cancel := context.WithTimeout(ctx, r.opts.NavigationTimeout)

	var observed Request
	found := false
	wait := r.page.Context(waitCtx).EachEvent(func(e *proto.NetworkRequestWillBeSent) bool {
		req := Request{Method: e.Request.Method, Url: e.Request.URL}
		if !match(req) {
			return false
		}
		observed = req
		found = true
		return true
	})

	return func() (Request, error) {
		defer cancel()
		wait()
		if !found {
			return Request{}, fmt.Errorf("await request: %w", context.Cause(waitCtx))
		}
		return observed, nil
	}
}

func (r *Rod) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	res, err := r.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return Response{}, err
	}
	return Response{Url: url, Status: res.StatusCode(), Body: res.Body()}, nil
}

func (r *Rod) PostForm(ctx context.Context, url string, form map[string]string, headers map[string]string) (Response, error) {
	res, err := r.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetFormData(form).
		Post(url)
	if err != nil {
		return Response{}, err
	}
	return Response{Url: url, Status: res.StatusCode(), Body: res.Body()}, nil
}

// Close releases the page, the browser connection and the launched process.
// An attached browser is left running.
func (r *Rod) Close() {
	if r.router != nil {
		_ = r.router.Stop()
	}
	if r.page != nil && r.opts.ControlUrl != "" {
		_ = r.page.Close()
	}
	if r.browser != nil && r.opts.ControlUrl == "" {
		_ = r.browser.Close()
	}
	if r.launch != nil {
		r.launch.Kill()
		r.launch.Cleanup()
	}
}
