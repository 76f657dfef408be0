package wsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExponentialDelay(t *testing.T) {
	backoff := PlayerBackoff()

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}
	for attempt, delay := range want {
		assert.Equal(t, delay, backoff.Delay(attempt), "attempt %d", attempt)
	}
}

func TestExponentialDelayHugeAttemptStaysCapped(t *testing.T) {
	backoff := Exponential{Base: time.Second, Cap: 30 * time.Second}

	assert.Equal(t, 30*time.Second, backoff.Delay(62))
	assert.Equal(t, 30*time.Second, backoff.Delay(100))
}

func TestFixedDelay(t *testing.T) {
	backoff := ManagerBackoff()

	assert.Equal(t, 2*time.Second, backoff.Delay(0))
	assert.Equal(t, 2*time.Second, backoff.Delay(4))
}
