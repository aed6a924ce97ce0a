package backoff_test

import (
	"testing"
	"time"

	"github.com/bhoriuchi/graphql-go-client/utils/backoff"
	"github.com/stretchr/testify/require"
)

func TestBackoffGrowsAndResets(t *testing.T) {
	b := backoff.NewBackoff(&backoff.Options{
		Min:    10 * time.Millisecond,
		Max:    1000 * time.Millisecond,
		Factor: 2,
	})

	prev := time.Duration(0)
	for i := 1; i < 6; i++ {
		dur := b.Duration()
		require.Greater(t, dur, prev)
		require.LessOrEqual(t, dur, 1000*time.Millisecond)
		prev = dur
	}

	require.Equal(t, float64(5), b.Attempts())

	b.Reset()
	require.Equal(t, float64(0), b.Attempts())
	require.Equal(t, 20*time.Millisecond, b.Duration())
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	b := backoff.NewBackoff(&backoff.Options{
		Min:    100 * time.Millisecond,
		Max:    10 * time.Second,
		Jitter: 0.5,
	})

	for i := 1; i < 11; i++ {
		dur := b.Duration()
		require.Positive(t, dur)
		require.LessOrEqual(t, dur, 10*time.Second)
	}
}
