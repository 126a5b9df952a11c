package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxAttempts = 3

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// retryAfter is a 429 response that asks to wait before retrying.
type retryAfter struct {
	*StatusError
	wait time.Duration
}

func (e *retryAfter) Unwrap() error { return e.StatusError }

// newBackOff is exponential with full jitter, stopping after maxAttempts tries.
func newBackOff(ctx context.Context, initial time.Duration) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 1
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, maxAttempts-1), ctx)
}

// retryAfterBackOff honours the wait a 429 response asks for.
type retryAfterBackOff struct {
	backoff.BackOffContext
	next time.Duration
}

func (r *retryAfterBackOff) NextBackOff() time.Duration {
	d := r.BackOffContext.NextBackOff()
	if d == backoff.Stop || r.next == 0 {
		return d
	}
	wait := r.next
	r.next = 0
	return wait
}

// classify turns a response into a retryable or permanent error.
func classify(url string, resp *http.Response, body string) error {
	if resp.StatusCode < 300 {
		return nil
	}
	err := &StatusError{URL: url, StatusCode: resp.StatusCode, Body: body}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := time.Second
		if s, perr := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); perr == nil && s >= 0 {
			wait = time.Duration(s * float64(time.Second))
		}
		return &retryAfter{StatusError: err, wait: wait}
	case resp.StatusCode >= 500:
		return err
	}
	return backoff.Permanent(err)
}

// retry runs op until it succeeds, fails permanently or runs out of attempts.
func retry(ctx context.Context, initial time.Duration, notify func(error, time.Duration), op func() error) error {
	policy := &retryAfterBackOff{BackOffContext: newBackOff(ctx, initial)}
	return backoff.RetryNotify(func() error {
		err := op()
		var ra *retryAfter
		if errors.As(err, &ra) {
			policy.next = ra.wait
		}
		return err
	}, policy, notify)
}
