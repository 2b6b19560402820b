// Package retry provides bounded retry with exponential backoff, applied
// uniformly at every external-call boundary: browser session, LLM call,
// chat-API call, SMTP exchange.
package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Policy describes one retry discipline. Retryable decides whether a given
// failure is worth another attempt; anything it rejects propagates
// immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// Default matches the discipline used across the pipeline: three attempts,
// exponential backoff starting at 4s and capped at 60s.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   4 * time.Second,
		MaxDelay:    60 * time.Second,
		Retryable:   retryable,
	}
}

// Do runs fn until it succeeds, a non-retryable error occurs, attempts are
// exhausted, or ctx is canceled. The last error is returned.
func (p Policy) Do(ctx context.Context, log *slog.Logger, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}
		delay := p.backoff(attempt)
		if log != nil {
			log.Warn("attempt failed, retrying",
				"op", op, "attempt", attempt, "delay", delay, "error", lastErr)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// backoff returns the delay before attempt n+1 (n is 1-based) with jitter.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt-1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d <= 0 {
		return 0
	}
	if q := int64(d) / 4; q > 0 {
		d += time.Duration(rand.Int64N(q))
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
