package fileaccess

import (
	"time"

	"github.com/ossyrian/carc/internal/errdefs"
)

// Bounds and defaults for the retry settings, in attempts and seconds.
const (
	MinAttempts     = 1
	MaxAttempts     = 10
	MinWaitSeconds  = 1
	MaxWaitSeconds  = 10
	DefaultAttempts = 1
	DefaultWait     = 1
)

// RetryPolicy bounds how often Acquire tries to open a file and how long it
// waits between tries. The wait is fixed, not exponential.
type RetryPolicy struct {
	Attempts int
	Wait     time.Duration
}

// DefaultRetryPolicy is a single attempt with a one second wait.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: DefaultAttempts, Wait: DefaultWait * time.Second}
}

// NewRetryPolicy validates attempts and waitSeconds against their ranges
// and builds a RetryPolicy.
func NewRetryPolicy(attempts, waitSeconds int) (RetryPolicy, error) {
	if attempts < MinAttempts || attempts > MaxAttempts {
		return RetryPolicy{}, errdefs.Invalid("retry attempts", attempts,
			"must be within 1 and 10 (including borders)")
	}
	if waitSeconds < MinWaitSeconds || waitSeconds > MaxWaitSeconds {
		return RetryPolicy{}, errdefs.Invalid("retry wait", waitSeconds,
			"must be within 1 and 10 seconds (including borders)")
	}
	return RetryPolicy{
		Attempts: attempts,
		Wait:     time.Duration(waitSeconds) * time.Second,
	}, nil
}
