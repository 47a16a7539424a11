// Package retry provides a small retry-policy abstraction shared by the
// provider call path and the storage upload path. Policies stay strictly
// sequential; delays block the calling goroutine, so MaxAttempts times the
// largest backoff must remain a small fraction of the invocation budget.
package retry

import (
	"context"
	"time"
)

// Policy describes bounded retry behavior.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Backoff returns the delay to apply after the given failed attempt
	// (1-based). A nil Backoff retries immediately.
	Backoff func(attempt int) time.Duration
	// RetryIf filters which errors are worth retrying. A nil RetryIf
	// retries every error.
	RetryIf func(err error) bool
	// Sleep overrides the delay implementation; tests inject a recorder
	// here. A nil Sleep uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Exponential returns a backoff of base doubled per attempt: attempt 1 waits
// base, attempt 2 waits 2*base, and so on.
func Exponential(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base << (attempt - 1)
	}
}

// Fixed returns a constant backoff.
func Fixed(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// Do runs op until it succeeds, exhausts the attempt budget, or hits a
// non-retryable error. The last observed error is returned; no delay is
// applied after the final attempt.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		last = op(ctx)
		if last == nil {
			return nil
		}
		if p.RetryIf != nil && !p.RetryIf(last) {
			return last
		}
		if attempt == attempts {
			break
		}
		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return last
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
