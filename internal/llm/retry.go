package llm

import (
	"context"
	"time"
)

// RetryClient wraps a Client with bounded retries. Each attempt gets its
// own timeout; backoff doubles between attempts and respects caller
// cancellation.
type RetryClient struct {
	inner    Client
	attempts int
	backoff  time.Duration
	timeout  time.Duration
}

func WithRetry(inner Client, attempts int, backoff, timeout time.Duration) *RetryClient {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryClient{inner: inner, attempts: attempts, backoff: backoff, timeout: timeout}
}

func (r *RetryClient) Generate(ctx context.Context, instruction string) (string, error) {
	var lastErr error
	delay := r.backoff
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		attemptCtx := ctx
		cancel := func() {}
		if r.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.timeout)
		}
		out, err := r.inner.Generate(attemptCtx, instruction)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !Retryable(err) {
			break
		}
	}
	return "", lastErr
}
