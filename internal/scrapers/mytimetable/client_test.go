package mytimetable_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"mytimetable-scraper/internal/browser"
	"mytimetable-scraper/internal/browser/browsertest"
	"mytimetable-scraper/internal/scrapers/mytimetable"
	"mytimetable-scraper/internal/scrapers/mytimetable/mytimetabletest"

	"github.com/stretchr/testify/require"
)

func TestSuggestions(t *testing.T) {
	site := &mytimetabletest.Site{Fills: [][]string{{"COMPSCI 1MD3 - Intro", "MATH 1ZA3 & more"}}}
	fake := site.Fake()
	client, _ := newClient(t, fake)

	labels, err := client.Suggestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"COMPSCI 1MD3 - Intro", "MATH 1ZA3 & more"}, labels)

	calls := fake.Calls(browsertest.CallGet)
	require.Len(t, calls, 1)
	require.Equal(t, "XMLHttpRequest", calls[0].Headers["X-Requested-With"])

	u, err := url.Parse(calls[0].Url)
	require.NoError(t, err)
	require.Equal(t, "/api/courses/suggestions", u.Path)
	q := u.Query()
	require.Equal(t, mytimetabletest.Term, q.Get("term"))
	require.Equal(t, "MCMSTiOFF_MCMSTiMCMST", q.Get("cams"))
	require.Equal(t, "a", q.Get("course_add"))
	require.Equal(t, "0", q.Get("page_num"))
	require.Equal(t, "1", q.Get("sio"))
	require.True(t, q.Has("already"))
	require.Equal(t, "1767603600000", q.Get("_"))
}

func TestSuggestionsFailures(t *testing.T) {
	ctx := context.Background()

	client, _ := newClient(t, &browsertest.Fake{
		OnGet: func(string, map[string]string) (browser.Response, error) {
			return browser.Response{Status: 503}, nil
		},
	})
	_, err := client.Suggestions(ctx)
	require.ErrorContains(t, err, "HTTP 503")

	boom := errors.New("connection reset")
	client, _ = newClient(t, &browsertest.Fake{
		OnGet: func(string, map[string]string) (browser.Response, error) {
			return browser.Response{}, boom
		},
	})
	_, err = client.Suggestions(ctx)
	require.ErrorIs(t, err, boom)
}

func TestParseSuggestionsSkipsBlank(t *testing.T) {
	labels, err := mytimetable.ParseSuggestions([]byte(
		`<add_suggest><results><rs>  A  </rs><rs></rs><rs> </rs><rs>B</rs></results><other><rs>C</rs></other></add_suggest>`,
	))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, labels)
}

func TestParseSuggestionsKeepsCdata(t *testing.T) {
	table := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "cdata",
			body:     `<add_suggest><results><rs><![CDATA[COMPSCI 1MD3]]></rs></results></add_suggest>`,
			expected: []string{"COMPSCI 1MD3"},
		},
		{
			name:     "cdata with entity-looking text",
			body:     `<add_suggest><results><rs><![CDATA[R&D 1A03]]></rs><rs>MATH 1ZA3</rs></results></add_suggest>`,
			expected: []string{"R&D 1A03", "MATH 1ZA3"},
		},
		{
			name:     "text around cdata",
			body:     `<add_suggest><results><rs> BIO <![CDATA[1A03]]> </rs></results></add_suggest>`,
			expected: []string{"BIO 1A03"},
		},
		{
			name:     "comments are not labels",
			body:     `<add_suggest><results><rs><!-- hidden --></rs><rs><![CDATA[]]></rs><rs>CHEM 1A03</rs></results></add_suggest>`,
			expected: []string{"CHEM 1A03"},
		},
		{
			name:     "xml declaration",
			body:     "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<add_suggest><results><rs><![CDATA[PHYSICS 1D03]]></rs></results></add_suggest>",
			expected: []string{"PHYSICS 1D03"},
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			labels, err := mytimetable.ParseSuggestions([]byte(row.body))
			require.NoError(t, err)
			require.Equal(t, row.expected, labels)
		})
	}
}

func TestResolve(t *testing.T) {
	site := &mytimetabletest.Site{Resolver: map[string]string{
		"COMPSCI 1MD3": mytimetabletest.Resolves("k1", "v1"),
		"MATH 1ZA3":    `[{"cnKey": 4471, "va": 0}, {"cnKey": "ignored"}]`,
		"BOGUS 9Z99":   `[{"error": "Course not found"}]`,
		"EMPTY 0000":   `[]`,
		"FALSY 0000":   `[{"error": "", "cnKey": "k2", "va": ""}]`,
		"BROKEN 0000":  `<html>login</html>`,
	}}
	fake := site.Fake()
	client, _ := newClient(t, fake)
	ctx := context.Background()

	id, err := client.Resolve(ctx, "COMPSCI 1MD3")
	require.NoError(t, err)
	require.Equal(t, mytimetable.Identity{CnKey: "k1", Va: "v1"}, id)

	post := fake.Calls(browsertest.CallPost)[0]
	require.Equal(t, mytimetabletest.BaseUrl+"/api/string-to-filter", post.Url)
	require.Equal(t, map[string]string{
		"term":        mytimetabletest.Term,
		"validations": "",
		"itemnames":   "COMPSCI 1MD3",
		"input":       "compsci 1md3",
		"reason":      "CODE_NUMBER",
		"current":     "",
		"isimport":    "0",
		"strict":      "0",
	}, post.Form)

	id, err = client.Resolve(ctx, "MATH 1ZA3")
	require.NoError(t, err)
	require.Equal(t, mytimetable.Identity{CnKey: "4471", Va: "0"}, id)

	id, err = client.Resolve(ctx, "FALSY 0000")
	require.NoError(t, err)
	require.Equal(t, "k2", id.CnKey)

	var resolveErr *mytimetable.ResolveError
	_, err = client.Resolve(ctx, "BOGUS 9Z99")
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, "Course not found", resolveErr.Reason)

	_, err = client.Resolve(ctx, "EMPTY 0000")
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, "No resolver result", resolveErr.Reason)

	_, err = client.Resolve(ctx, "BROKEN 0000")
	require.Error(t, err)
	require.False(t, errors.As(err, &resolveErr))
}

func TestResolveTransportError(t *testing.T) {
	boom := errors.New("socket hang up")
	site := &mytimetabletest.Site{ResolveErr: map[string]error{"COMPSCI 1MD3": boom}}
	client, _ := newClient(t, site.Fake())

	_, err := client.Resolve(context.Background(), "COMPSCI 1MD3")
	require.ErrorIs(t, err, boom)
	var resolveErr *mytimetable.ResolveError
	require.False(t, errors.As(err, &resolveErr))
}
