package policy

import (
	"testing"
	"time"

	"github.com/bhoriuchi/graphql-go-client/utils/backoff"
	"github.com/bhoriuchi/graphql-go-client/ws/graphqltransportws"
	"github.com/stretchr/testify/require"
)

func TestReconnectShouldRetry(t *testing.T) {
	r := NewReconnect(nil, 3)

	tests := []struct {
		reason   graphqltransportws.CloseReason
		attempts int
		want     bool
	}{
		{graphqltransportws.ReasonError, 0, true},
		{graphqltransportws.ReasonTimeout, 2, true},
		{graphqltransportws.ReasonError, 3, false},
		{graphqltransportws.ReasonClient, 0, false},
		{graphqltransportws.ReasonServer, 0, false},
		{graphqltransportws.ReasonServerError, 0, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, r.ShouldRetry(tt.reason, tt.attempts),
			"reason=%s attempts=%d", tt.reason, tt.attempts)
	}
}

func TestReconnectUnlimitedAttempts(t *testing.T) {
	r := NewReconnect(nil, 0)
	require.True(t, r.ShouldRetry(graphqltransportws.ReasonError, 1000))
}

func TestReconnectDelayGrowsAndResets(t *testing.T) {
	r := NewReconnect(&backoff.Options{
		Min:    10 * time.Millisecond,
		Max:    time.Second,
		Factor: 2,
	}, 0)

	first := r.NextDelay()
	second := r.NextDelay()
	require.Greater(t, second, first, "delays grow between attempts")

	r.Reset()
	require.Equal(t, first, r.NextDelay(), "reset restarts the delay schedule")
}
