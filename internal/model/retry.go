package model

import (
	"context"
	"errors"
	"time"
)

const (
	defaultTimeout    = 2 * time.Minute
	defaultRetryDelay = 2 * time.Second
)

// Complete calls b.Complete with the configured per-call timeout, retrying
// retryable failures up to opts.MaxRetries times with a fixed delay between
// attempts. Exhausting retries returns the last error. Non-retryable errors
// (authentication, validation) return immediately.
func Complete(ctx context.Context, b Backend, prompt string, opts Options) (string, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := b.Complete(callCtx, prompt, opts)
		cancel()

		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = &TimeoutError{Op: "model call", Timeout: timeout}
		}
		if !Retryable(err) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}
