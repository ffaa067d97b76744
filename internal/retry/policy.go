// Package retry provides a small backoff policy for transient failures,
// currently the daemon's initial event-broker connection.
package retry

import "time"

// BackoffMode selects how the delay grows between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // retry attempts after the first failure
}

// DefaultPolicy returns the default policy: linear backoff, 1s initial,
// 30s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// Delay returns the backoff delay for the given retry attempt number
// (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}
