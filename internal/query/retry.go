package query

import (
	"context"
	"time"

	"github.com/pders01/mrkt/internal/marketplace"
)

const defaultMaxDelay = 30 * time.Second

// RetryPolicy controls how a failed fetch is repeated.
type RetryPolicy struct {
	// Retries is the number of extra attempts after the first one.
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable decides whether an error is worth another attempt.
	// marketplace.IsRetryable is used when nil.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries three times, doubling from one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:   3,
		BaseDelay: time.Second,
		MaxDelay:  defaultMaxDelay,
	}
}

// Backoff returns the wait before retry number attempt (zero based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	return min(delay, maxDelay)
}

// Retry runs operation until it succeeds, fails with a non retryable
// error, runs out of attempts or ctx is done.
func Retry(ctx context.Context, p RetryPolicy, operation func(context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = marketplace.IsRetryable
	}

	retries := max(p.Retries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == retries || !retryable(lastErr) {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
