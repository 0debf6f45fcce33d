package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return nil
}

func TestBackoffClampsAndGrows(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 8, Multiplier: 2, MinWait: 4 * time.Second, MaxWait: 30 * time.Second}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 4 * time.Second},
		{attempt: 2, want: 4 * time.Second},
		{attempt: 3, want: 8 * time.Second},
		{attempt: 4, want: 16 * time.Second},
		{attempt: 5, want: 30 * time.Second},
		{attempt: 40, want: 30 * time.Second},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, p.Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	p := Policy{MaxAttempts: 5, Multiplier: 2, MinWait: 4 * time.Second, MaxWait: 10 * time.Second}
	sleeper := &recordingSleeper{}
	boom := errors.New("connection refused")
	calls := 0

	attempts, err := p.Do(context.Background(), sleeper, func(context.Context, int) error {
		calls++
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.Equal(t, 5, calls)
	require.Equal(t, 5, attempts)
	require.Len(t, sleeper.waits, 4)
	for i := 1; i < len(sleeper.waits); i++ {
		require.GreaterOrEqual(t, sleeper.waits[i], sleeper.waits[i-1])
	}
	for _, w := range sleeper.waits {
		require.LessOrEqual(t, w, p.MaxWait)
	}
}

func TestDoSucceedsAfterTransientFailure(t *testing.T) {
	t.Parallel()

	sleeper := &recordingSleeper{}
	attempts, err := DefaultPolicy().Do(context.Background(), sleeper, func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 2, attempts)
	require.Equal(t, []time.Duration{4 * time.Second}, sleeper.waits)
}

func TestDoDoesNotRetryPermanentOrCanceled(t *testing.T) {
	t.Parallel()

	shape := errors.New("bad shape")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "permanent", err: Permanent(shape), want: shape},
		{name: "canceled", err: context.Canceled, want: context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sleeper := &recordingSleeper{}
			attempts, err := DefaultPolicy().Do(context.Background(), sleeper, func(context.Context, int) error {
				return tt.err
			})
			require.ErrorIs(t, err, tt.want)
			require.Equal(t, 1, attempts)
			require.Empty(t, sleeper.waits)
		})
	}
}

func TestRetryablePredicate(t *testing.T) {
	t.Parallel()

	fatal := errors.New("fatal")
	p := DefaultPolicy()
	p.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	require.False(t, p.ShouldRetry(fatal, 1))
	require.True(t, p.ShouldRetry(errors.New("flaky"), 1))
	require.False(t, p.ShouldRetry(errors.New("flaky"), 3))
	require.False(t, p.ShouldRetry(nil, 1))
}

func TestTimerSleeperHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := TimerSleeper{}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, TimerSleeper{}.Sleep(context.Background(), 0))
}
