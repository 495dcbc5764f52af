package faq

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig controls exponential backoff for scheduled reloads.
type RetryConfig struct {
	MaxRetries int           // 0 = no retry
	BaseDelay  time.Duration // first backoff delay
	MaxDelay   time.Duration // backoff cap
}

// DefaultRetryConfig retries a failed refresh three times over roughly half
// a minute.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// retry runs fn until it succeeds, retries are exhausted or ctx is done.
// Returns the number of attempts made and the last error.
func retry(ctx context.Context, cfg RetryConfig, fn func() error) (attempts int, err error) {
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return attempt + 1, nil
		}
		if attempt == cfg.MaxRetries {
			break
		}
		timer := time.NewTimer(backoffWithJitter(cfg.BaseDelay, cfg.MaxDelay, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, err
		case <-timer.C:
		}
	}
	return cfg.MaxRetries + 1, err
}

// backoffWithJitter computes min(base * 2^attempt, max) ± 25%.
func backoffWithJitter(base, max time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		delay = max
	}
	if quarter := delay / 4; quarter > 0 {
		delay += time.Duration(rand.Int64N(int64(quarter*2))) - quarter
	}
	return delay
}
