package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) Generate(context.Context, string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	return "ok", nil
}

func TestRetrySucceedsAfterTransientFailure(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrRateLimited, ErrUnavailable}}
	c := WithRetry(inner, 3, time.Millisecond, 0)

	out, err := c.Generate(context.Background(), "say hi")
	if err != nil {
		t.Fatal(err)
	}
	if out != "ok" || inner.calls != 3 {
		t.Errorf("out = %q calls = %d", out, inner.calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrTimeout, ErrTimeout, ErrTimeout}}
	c := WithRetry(inner, 3, time.Millisecond, 0)

	_, err := c.Generate(context.Background(), "say hi")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid request")
	inner := &scriptedClient{errs: []error{permanent, permanent}}
	c := WithRetry(inner, 3, time.Millisecond, 0)

	_, err := c.Generate(context.Background(), "say hi")
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1 for a non-retryable error", inner.calls)
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	inner := &scriptedClient{errs: []error{ErrUnavailable, ErrUnavailable}}
	c := WithRetry(inner, 3, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, "say hi")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if inner.calls != 1 {
		t.Errorf("calls = %d, want 1", inner.calls)
	}
}
