package chrono

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardSleepCancelled(t *testing.T) {
	cause := errors.New("stop")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	err := NewStandardTime().Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, cause)
}

func TestStandardSleepElapses(t *testing.T) {
	err := NewStandardTime().Sleep(context.Background(), time.Millisecond)
	require.NoError(t, err)
}

func TestFakeTime(t *testing.T) {
	start := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	fake := NewFakeTime(start)

	require.NoError(t, fake.Sleep(context.Background(), 250*time.Millisecond))
	fake.Advance(time.Second)
	require.NoError(t, fake.Sleep(context.Background(), 250*time.Millisecond))

	require.Equal(t, start.Add(1500*time.Millisecond), fake.Now())
	require.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, fake.Sleeps())
}
