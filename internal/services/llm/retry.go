package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type retryAfter struct {
	delay time.Duration
	ok    bool
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(value string) retryAfter {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return retryAfter{delay: time.Duration(seconds) * time.Second, ok: true}
	}
	if when, err := http.ParseTime(value); err == nil {
		if delay := time.Until(when); delay >= 0 {
			return retryAfter{delay: delay, ok: true}
		}
	}
	return retryAfter{}
}

// retryPolicy retries 408, 429, 5xx, empty replies, and network timeouts
// with exponential backoff. Retry-After wins over the computed delay.
type retryPolicy struct {
	attempts int
	base     time.Duration
	max      time.Duration
	sleeper  func(time.Duration)
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{attempts: 5, base: time.Second, max: 10 * time.Second}
}

func (p retryPolicy) maxAttempts() int {
	return max(p.attempts, 1)
}

func (p retryPolicy) next(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= p.maxAttempts() || ctx.Err() != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var empty *emptyReplyError
	if errors.As(err, &empty) {
		return p.backoff(attempt), true
	}
	var status *statusError
	if errors.As(err, &status) {
		if status.code != http.StatusRequestTimeout && status.code != http.StatusTooManyRequests &&
			status.code < http.StatusInternalServerError {
			return 0, false
		}
		if status.retryAfter.ok {
			return p.clamp(status.retryAfter.delay), true
		}
		return p.backoff(attempt), true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}
	return 0, false
}

// backoff returns base * 2^(attempt-1), clamped to max.
func (p retryPolicy) backoff(attempt int) time.Duration {
	if p.base <= 0 {
		return 0
	}
	delay := p.base
	for i := 1; i < attempt && (p.max <= 0 || delay < p.max); i++ {
		delay *= 2
	}
	return p.clamp(delay)
}

func (p retryPolicy) clamp(delay time.Duration) time.Duration {
	if p.max > 0 {
		delay = min(delay, p.max)
	}
	return max(delay, 0)
}

func (p retryPolicy) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
