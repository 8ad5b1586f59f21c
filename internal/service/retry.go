package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
)

// RetryConfig holds the backoff settings for provider calls
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int
}

// DefaultRetryConfig returns the backoff used against the hosted provider
func DefaultRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxRetries:      maxRetries,
	}
}

func (c RetryConfig) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.MaxElapsedTime = 0

	retries := c.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// classify marks errors that a retry cannot fix as permanent.
// Network failures, 429 and 5xx stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return backoff.Permanent(err)
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == 0 || status == http.StatusTooManyRequests || status >= 500 {
		return err
	}
	return backoff.Permanent(err)
}

// StatusCode extracts the provider HTTP status from err, or 0
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
