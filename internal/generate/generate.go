// Package generate puts the text-generation providers behind one interface.
//
// Providers (Anthropic, Gemini, OpenAI, Ollama) only translate a prompt and
// Options into one SDK call. Retry, rate limiting and latency tracking are
// decorators that wrap any Generator, so the pipeline sees a single call
// that either returns a reply or fails.
package generate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Generator turns one prompt into one free-text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	Model() string
}

// Options are the sampling parameters sent with each request. A nil
// Temperature and zero values elsewhere are left to the provider's default;
// a Temperature pointing at 0 is sent as greedy decoding.
type Options struct {
	Temperature     *float64
	MaxOutputTokens int
	TopP            float64
	TopK            int
}

// Float returns a pointer to v, for Options.Temperature.
func Float(v float64) *float64 { return &v }

// DefaultOptions favours deterministic, short factual answers.
func DefaultOptions() Options {
	return Options{
		Temperature:     Float(0.05),
		MaxOutputTokens: 1200,
		TopP:            0.92,
		TopK:            35,
	}
}

// RetryableError indicates a transient provider failure that can be retried.
type RetryableError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: retryable error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// retryableStatus reports the HTTP statuses that mark a transient failure.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
