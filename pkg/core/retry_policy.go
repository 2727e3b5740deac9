package core

import "time"

// RetryPolicy defines exponential backoff settings for protocol-level
// retries (unprocessed batch items and keys). Transport retries are
// configured separately on the session.
type RetryPolicy struct {
	// MaxRetries is the maximum number of retry attempts before giving up.
	MaxRetries int
	// InitialDelay is the base delay between attempts.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff delay.
	MaxDelay time.Duration
	// BackoffFactor controls how quickly the delay grows between attempts.
	BackoffFactor float64
}

// DefaultRetryPolicy returns the baseline policy for unprocessed-item and
// unprocessed-key retry loops.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:    8,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Delay returns the backoff before the given retry attempt (0-based).
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	if p == nil || p.InitialDelay <= 0 {
		return 0
	}
	d := p.InitialDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Clone returns a copy so callers can tune a policy without mutating shared
// defaults.
func (p *RetryPolicy) Clone() *RetryPolicy {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
