package generate

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	go_openai "github.com/sashabaranov/go-openai"
)

// Retry defaults for [OpenAI].
const (
	DefaultAttempts   = 3
	DefaultRetryDelay = time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Rate limits and server errors of the generation service are wrapped with
// this type so that [Retry] attempts the call again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return stderrors.As(err, new(*RetryableError))
}

// classify marks rate limits and 5xx responses as retryable.
func classify(err error) error {
	status := 0
	var apiErr *go_openai.APIError
	var reqErr *go_openai.RequestError
	switch {
	case stderrors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case stderrors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &RetryableError{Err: err}
	}
	return err
}
