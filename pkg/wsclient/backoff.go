package wsclient

import "time"

// Backoff yields the delay before reconnect attempt n (zero-based).
type Backoff interface {
	Delay(attempt int) time.Duration
}

// Exponential doubles the base delay per attempt up to a cap.
type Exponential struct {
	Base time.Duration
	Cap  time.Duration
}

func (b Exponential) Delay(attempt int) time.Duration {
	if attempt >= 63 {
		return b.Cap
	}

	delay := b.Base << uint(attempt)
	if delay <= 0 || delay > b.Cap {
		return b.Cap
	}

	return delay
}

// Fixed waits the same interval before every attempt.
type Fixed struct {
	Interval time.Duration
}

func (b Fixed) Delay(int) time.Duration {
	return b.Interval
}

// Reconnect profiles for the two client roles.
const (
	PlayerMaxAttempts  = 10
	ManagerMaxAttempts = 5
)

func PlayerBackoff() Backoff {
	return Exponential{Base: time.Second, Cap: 30 * time.Second}
}

func ManagerBackoff() Backoff {
	return Fixed{Interval: 2 * time.Second}
}
