package mytimetable

import (
	"regexp"
	"strings"
)

// ResponseClassifier inspects class-data bodies by pattern, the payload
// schema is never parsed.
type ResponseClassifier interface {
	// StaleToken reports a rejected t/e token pair.
	StaleToken(body string) bool
	NotAuthorized(body string) bool
	// ContentError returns the first <error> message of the body.
	ContentError(body string) (string, bool)
}

type PatternClassifier struct {
	Stale        *regexp.Regexp
	Unauthorized *regexp.Regexp
	Error        *regexp.Regexp
}

var DefaultClassifier ResponseClassifier = PatternClassifier{
	Stale:        regexp.MustCompile(`(?i)timezone and time`),
	Unauthorized: regexp.MustCompile(`(?i)Error\s*7133:\s*Not Authorized`),
	Error:        regexp.MustCompile(`(?i)<error>([\s\S]*?)</error>`),
}

func (c PatternClassifier) StaleToken(body string) bool {
	return c.Stale.MatchString(body)
}

func (c PatternClassifier) NotAuthorized(body string) bool {
	return c.Unauthorized.MatchString(body)
}

func (c PatternClassifier) ContentError(body string) (string, bool) {
	groups := c.Error.FindStringSubmatch(body)
	if groups == nil {
		return "", false
	}
	return strings.TrimSpace(groups[1]), true
}
