// Package llm - retry.go provides retry-with-backoff for provider calls.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimited is returned when every attempt of an operation failed with a
// rate-limit signal. Callers treat it as a soft failure and substitute
// curated/fallback content rather than surfacing it to the user.
var ErrRateLimited = errors.New("API rate limit exceeded, please try again later")

// DefaultMaxAttempts is the total number of attempts (initial call + retries).
const DefaultMaxAttempts = 3

// IsRateLimit reports whether err looks like a provider rate-limit rejection.
// The Gemini SDK surfaces these as googleapi errors whose message carries the
// HTTP status; matching on the message keeps this provider-agnostic.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "Too Many Requests") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// Backoff computes the delay before retry number attempt (1-based): 2s, 4s, 8s, ...
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

// RetryOptions configures WithRetry. The zero value is not usable; use
// DefaultRetryOptions and override as needed.
type RetryOptions struct {
	MaxAttempts int
	IsRetryable func(error) bool
	Backoff     func(attempt int) time.Duration
	// Sleep is the wait primitive, injectable for tests. Defaults to a
	// context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryOptions returns the retry policy used for scoring calls:
// 3 attempts total, retrying only on rate-limit signals with exponential backoff.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: DefaultMaxAttempts,
		IsRetryable: IsRateLimit,
		Backoff:     Backoff,
		Sleep:       sleepCtx,
	}
}

// WithRetry runs op up to opts.MaxAttempts times. A failure is retried only if
// opts.IsRetryable says so; any other error propagates immediately. When every
// attempt fails with a retryable error, the result is ErrRateLimited wrapping
// the last failure.
func WithRetry(ctx context.Context, opts RetryOptions, op func(ctx context.Context) (string, error)) (string, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.IsRetryable == nil {
		opts.IsRetryable = IsRateLimit
	}
	if opts.Backoff == nil {
		opts.Backoff = Backoff
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !opts.IsRetryable(err) {
			return "", err
		}
		lastErr = err

		if attempt < opts.MaxAttempts {
			if serr := opts.Sleep(ctx, opts.Backoff(attempt)); serr != nil {
				return "", serr
			}
		}
	}

	return "", fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
}

// sleepCtx waits for d or until ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
