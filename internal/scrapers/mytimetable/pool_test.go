package mytimetable_test

import (
	"context"
	"errors"
	"testing"

	"mytimetable-scraper/internal/scrapers/mytimetable"

	"github.com/stretchr/testify/require"
)

type fills struct {
	lists [][]string
	err   error
	calls int
}

func (f *fills) Suggestions(ctx context.Context) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.lists) == 0 {
		return nil, nil
	}
	next := f.lists[0]
	f.lists = f.lists[1:]
	return next, nil
}

func TestPoolNext(t *testing.T) {
	ctx := context.Background()
	src := &fills{lists: [][]string{{"A", "B"}, {"C"}}}

	pool := mytimetable.Pool{}
	var got []string
	for i := 0; i < 3; i++ {
		var label string
		var err error
		label, pool, err = pool.Next(ctx, src)
		require.NoError(t, err)
		got = append(got, label)
	}
	require.Equal(t, []string{"A", "B", "C"}, got)
	require.Equal(t, 2, src.calls)

	_, _, err := pool.Next(ctx, src)
	require.ErrorIs(t, err, mytimetable.ErrNoSuggestions)
}

func TestPoolNextKeepsReceiver(t *testing.T) {
	ctx := context.Background()
	pool := mytimetable.NewPool([]string{"A", "B"})

	label, next, err := pool.Next(ctx, &fills{})
	require.NoError(t, err)
	require.Equal(t, "A", label)
	require.Equal(t, 1, next.Len())
	require.Equal(t, 2, pool.Len())

	again, _, err := pool.Next(ctx, &fills{})
	require.NoError(t, err)
	require.Equal(t, "A", again)
}

func TestPoolRefillError(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := mytimetable.Pool{}.Next(context.Background(), &fills{err: boom})
	require.ErrorIs(t, err, boom)
}
