// Package gate decides which outbound requests a scraping run may issue.
//
// Everything outside the application's API is passed through untouched, usage
// telemetry beacons are dropped and only reads (plus the one POST the resolver
// needs) are allowed against the API. Anything else stops the run.
package gate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"mytimetable-scraper/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_gate_drop  = "gate.drop"
	report_gate_block = "gate.block"
)

type Decision int

const (
	Passthrough Decision = iota
	Drop
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Passthrough:
		return "passthrough"
	case Drop:
		return "drop"
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// ErrDropped is returned for requests the gate failed locally without
// affecting the run.
var ErrDropped = errors.New("gate: request dropped")

type BlockedError struct {
	Method string
	Url    string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Blocked non-GET API call: %s %s", e.Method, e.Url)
}

type Policy struct {
	apiPrefix      string
	usagePrefix    string
	resolverPrefix string
}

func NewPolicy(baseUrl string) Policy {
	base := strings.TrimSuffix(baseUrl, "/")
	return Policy{
		apiPrefix:      base + "/api/",
		usagePrefix:    base + "/api/report-usage",
		resolverPrefix: base + "/api/string-to-filter",
	}
}

// Classify is a pure function of its arguments.
func (p Policy) Classify(method, url string) Decision {
	if !strings.HasPrefix(url, p.apiPrefix) {
		return Passthrough
	}
	if strings.HasPrefix(url, p.usagePrefix) {
		return Drop
	}
	method = strings.ToUpper(method)
	if method == http.MethodGet {
		return Allow
	}
	if method == http.MethodPost && strings.HasPrefix(url, p.resolverPrefix) {
		return Allow
	}
	return Deny
}

// Gate applies a Policy and remembers the first denied request. onBlock is
// called exactly once, with the first BlockedError.
type Gate struct {
	Policy Policy

	tel     telemetry.API
	onBlock func(err *BlockedError)

	mutex   sync.Mutex
	blocked *BlockedError
}

func New(policy Policy, tel telemetry.API, onBlock func(err *BlockedError)) *Gate {
	return &Gate{
		Policy:  policy,
		tel:     telemetry.NewScopedAPI("gate", tel),
		onBlock: onBlock,
	}
}

// Check classifies a request, it returns nil if the request may proceed
// (Passthrough or Allow), ErrDropped on Drop and a *BlockedError on Deny.
func (g *Gate) Check(method, url string) error {
	switch g.Policy.Classify(method, url) {
	case Passthrough, Allow:
		return nil
	case Drop:
		g.tel.ReportDebug(report_gate_drop, method, url)
		return ErrDropped
	}

	err := &BlockedError{Method: strings.ToUpper(method), Url: url}
	g.mutex.Lock()
	first := g.blocked == nil
	if first {
		g.blocked = err
	}
	g.mutex.Unlock()

	if first {
		g.tel.ReportBroken(report_gate_block, err)
		if g.onBlock != nil {
			g.onBlock(err)
		}
	}
	return err
}

// Blocked returns the first denied request, if any.
func (g *Gate) Blocked() *BlockedError {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.blocked
}

// InstallResty makes every request of the client pass through the gate.
func (g *Gate) InstallResty(client *resty.Client) {
	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		return g.Check(req.Method, resolveUrl(c.BaseURL, req.URL))
	})
}

func resolveUrl(base, url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || base == "" {
		return url
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(url, "/")
}
