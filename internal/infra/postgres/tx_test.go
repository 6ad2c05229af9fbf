//go:build unit

package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}

	cases := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first attempt", attempt: 1, want: 100 * time.Millisecond},
		{name: "second attempt doubles", attempt: 2, want: 200 * time.Millisecond},
		{name: "third attempt doubles again", attempt: 3, want: 400 * time.Millisecond},
		{name: "clamped at max delay", attempt: 10, want: 2 * time.Second},
		{name: "attempt below one is treated as one", attempt: 0, want: 100 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.NextDelay(tc.attempt))
		})
	}

	t.Run("zero-value policy still yields a usable delay", func(t *testing.T) {
		var p RetryPolicy
		assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
		assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	})
}
