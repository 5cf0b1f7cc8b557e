package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient("", "gpt-4o-mini"); err == nil {
		t.Fatal("missing key accepted")
	}
}

func TestNewOpenAIClientDefaultsModel(t *testing.T) {
	c, err := NewOpenAIClient("sk-test", "")
	if err != nil {
		t.Fatal(err)
	}
	if c.model != "gpt-4o-mini" {
		t.Errorf("model = %q, want the default", c.model)
	}

	c, err = NewOpenAIClient("sk-test", "gpt-4o")
	if err != nil {
		t.Fatal(err)
	}
	if c.model != "gpt-4o" {
		t.Errorf("model = %q, want gpt-4o", c.model)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{context.DeadlineExceeded, ErrTimeout},
		{fmt.Errorf("request: %w", context.DeadlineExceeded), ErrTimeout},
		{&openai.APIError{HTTPStatusCode: 429}, ErrRateLimited},
		{&openai.APIError{HTTPStatusCode: 500}, ErrUnavailable},
		{&openai.APIError{HTTPStatusCode: 503}, ErrUnavailable},
		{errors.New("connection refused"), ErrUnavailable},
	}
	for _, c := range cases {
		if got := classify(c.in); !errors.Is(got, c.want) {
			t.Errorf("classify(%v) = %v, want %v", c.in, got, c.want)
		}
	}

	// Client-side API errors are not retryable and pass through unwrapped.
	badReq := &openai.APIError{HTTPStatusCode: 400}
	if got := classify(badReq); Retryable(got) {
		t.Errorf("classify(400) = %v, should not be retryable", got)
	}
}
