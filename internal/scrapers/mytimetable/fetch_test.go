package mytimetable_test

import (
	"context"
	"net/url"
	"testing"

	"mytimetable-scraper/internal/browser/browsertest"
	"mytimetable-scraper/internal/scrapers/mytimetable"
	"mytimetable-scraper/internal/scrapers/mytimetable/mytimetabletest"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func primed(t *testing.T, site *mytimetabletest.Site) (*mytimetable.Client, *browsertest.Fake, mytimetable.Session) {
	t.Helper()
	fake := site.Fake()
	client, _ := newClient(t, fake)
	sess, err := client.Prime(context.Background())
	require.NoError(t, err)
	return client, fake, sess
}

var id = mytimetable.Identity{CnKey: "k1", Va: "v1"}

func TestPrime(t *testing.T) {
	site := &mytimetabletest.Site{Fills: [][]string{{"A", "B", "C"}}}
	_, _, sess := primed(t, site)

	require.Equal(t, []string{"A"}, site.Captures())
	require.Equal(t, 2, sess.Pool.Len())
	require.Equal(t, "token-1", sess.Template.Params["t"])
}

func TestPrimeWithoutSuggestions(t *testing.T) {
	site := &mytimetabletest.Site{}
	client, _ := newClient(t, site.Fake())
	_, err := client.Prime(context.Background())
	require.ErrorIs(t, err, mytimetable.ErrNoSuggestions)
	require.Empty(t, site.Captures())
}

func TestFetchSucceeds(t *testing.T) {
	site := &mytimetabletest.Site{Fills: [][]string{{"A", "B"}}}
	client, fake, sess := primed(t, site)

	result, next, err := client.Fetch(context.Background(), sess, id)
	require.NoError(t, err)
	require.Equal(t, mytimetable.Succeeded, result.State)
	require.Equal(t, 1, result.Attempts)
	require.False(t, result.Recaptured)
	require.Equal(t, mytimetabletest.ClassDataBody("k1"), result.Response.Text())
	require.Equal(t, sess, next)

	gets := fake.Calls(browsertest.CallGet)
	fetch := gets[len(gets)-1]
	require.Equal(t, "XMLHttpRequest", fetch.Headers["X-Requested-With"])
	require.Equal(t, mytimetabletest.BaseUrl+"/criteria.jsp", fetch.Headers["Referer"])

	u, err := url.Parse(fetch.Url)
	require.NoError(t, err)
	require.Equal(t, "token-1", u.Query().Get("t"))
	require.Equal(t, "v1", u.Query().Get("va_0_0"))
	require.False(t, u.Query().Has("nouser"))
}

func TestFetchRetriesStaleTokenOnce(t *testing.T) {
	site := &mytimetabletest.Site{
		Fills:     [][]string{{"A", "B"}},
		ClassData: map[string][]string{"k1": {mytimetabletest.StaleBody, mytimetabletest.ClassDataBody("k1")}},
	}
	client, fake, sess := primed(t, site)

	result, next, err := client.Fetch(context.Background(), sess, id)
	require.NoError(t, err)
	require.Equal(t, mytimetable.Succeeded, result.State)
	require.Equal(t, 2, result.Attempts)
	require.True(t, result.Recaptured)
	require.Equal(t, 2, site.Fetches("k1"))
	require.Equal(t, []string{"A", "B"}, site.Captures())
	require.Equal(t, "token-2", next.Template.Params["t"])
	require.Equal(t, 0, next.Pool.Len())

	gets := fake.Calls(browsertest.CallGet)
	u, err := url.Parse(gets[len(gets)-1].Url)
	require.NoError(t, err)
	require.Equal(t, "token-2", u.Query().Get("t"))
}

func TestFetchSecondStaleResponseStands(t *testing.T) {
	site := &mytimetabletest.Site{
		Fills:     [][]string{{"A"}, {"B"}},
		ClassData: map[string][]string{"k1": {mytimetabletest.StaleBody}},
	}
	client, _, sess := primed(t, site)

	result, _, err := client.Fetch(context.Background(), sess, id)
	require.NoError(t, err)
	require.Equal(t, mytimetable.TokenStale, result.State)
	require.Equal(t, 2, result.Attempts)
	require.Equal(t, mytimetabletest.StaleBody, result.Response.Text())
	require.Equal(t, 2, site.Fetches("k1"))
	require.Equal(t, 2, site.SuggestionListings())
}

func TestFetchNotAuthorized(t *testing.T) {
	site := &mytimetabletest.Site{
		Fills:     [][]string{{"A"}},
		ClassData: map[string][]string{"k1": {mytimetabletest.NotAuthorizedBody}},
	}
	client, _, sess := primed(t, site)

	result, _, err := client.Fetch(context.Background(), sess, id)
	require.ErrorIs(t, err, mytimetable.ErrNotAuthorized)
	require.Equal(t, mytimetable.NotAuthorized, result.State)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, mytimetabletest.NotAuthorizedBody, result.Response.Text())
}

func TestFetchContentErrorIsNotRetried(t *testing.T) {
	site := &mytimetabletest.Site{
		Fills:     [][]string{{"A"}},
		ClassData: map[string][]string{"k1": {mytimetabletest.ErrorBody("No sections offered")}},
	}
	client, _, sess := primed(t, site)

	result, _, err := client.Fetch(context.Background(), sess, id)
	require.NoError(t, err)
	require.Equal(t, 1, result.Attempts)
	require.Equal(t, 1, site.Fetches("k1"))
}

func TestFetchRecaptureWithoutSuggestions(t *testing.T) {
	site := &mytimetabletest.Site{
		Fills:     [][]string{{"A"}},
		ClassData: map[string][]string{"k1": {mytimetabletest.StaleBody}},
	}
	client, _, sess := primed(t, site)

	result, _, err := client.Fetch(context.Background(), sess, id)
	require.ErrorIs(t, err, mytimetable.ErrNoSuggestions)
	require.Equal(t, mytimetable.Recapturing, result.State)
	require.Equal(t, 1, site.Fetches("k1"))
}

func TestFetchRetriesAtMostOnce(t *testing.T) {
	bodies := []string{
		mytimetabletest.ClassDataBody("k1"),
		mytimetabletest.StaleBody,
		mytimetabletest.ErrorBody("No sections offered"),
		mytimetabletest.NotAuthorizedBody,
	}

	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	properties.Property("two fetches exactly when the first response is stale", prop.ForAll(
		func(picks []int) bool {
			sequence := make([]string, len(picks))
			for i, pick := range picks {
				sequence[i] = bodies[pick]
			}
			site := &mytimetabletest.Site{
				Fills:     [][]string{{"A", "B"}},
				ClassData: map[string][]string{"k1": sequence},
			}
			client, _ := newClient(t, site.Fake())
			sess, err := client.Prime(context.Background())
			if err != nil {
				return false
			}

			result, _, _ := client.Fetch(context.Background(), sess, id)

			fetches := site.Fetches("k1")
			firstStale := sequence[0] == mytimetabletest.StaleBody
			return fetches <= 2 &&
				(fetches == 2) == firstStale &&
				result.Attempts == fetches &&
				result.Recaptured == firstStale &&
				result.Response.Text() == sequence[fetches-1]
		},
		gen.SliceOfN(3, gen.IntRange(0, len(bodies)-1)),
	))
	properties.TestingRun(t)
}
