// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search providers and
// the content extractor.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps how long a server-supplied Retry-After may hold a request.
var MaxRetryAfter = 30 * time.Second

const defaultMaxRetries = 3

// rateLimitedError marks a 429 that should be retried.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", http.StatusTooManyRequests)
}

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests). The delay doubles from RetryBaseDelay each attempt unless the
// server sends a Retry-After header, which wins (capped at MaxRetryAfter).
//
// When maxRetries is 0 the default (3) is used. Transport errors are not
// retried. If the context is cancelled during a backoff wait the function
// returns ctx.Err(). After exhausting retries the last 429 response is
// returned so the caller can inspect it. A nil logger is allowed.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, logger *zap.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var resp *http.Response
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			r, err := client.Do(req.Clone(ctx))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if r.StatusCode != http.StatusTooManyRequests || attempt > maxRetries {
				resp = r
				return nil
			}

			wait := parseRetryAfter(r.Header.Get("Retry-After"))
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return &rateLimitedError{retryAfter: wait}
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxRetries+1)),
		retry.LastErrorOnly(true),
		retry.DelayType(backoffDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("rate limited, retrying",
				zap.String("host", req.URL.Host),
				zap.Uint("attempt", n+1),
				zap.Int("max_retries", maxRetries))
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// backoffDelay honours Retry-After when present and otherwise doubles
// RetryBaseDelay per attempt.
func backoffDelay(n uint, err error, _ *retry.Config) time.Duration {
	if rl, ok := err.(*rateLimitedError); ok && rl.retryAfter > 0 {
		return rl.retryAfter
	}
	return RetryBaseDelay * time.Duration(1<<n)
}

// parseRetryAfter reads the delta-seconds or HTTP-date form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = time.Until(t)
	}
	if d < 0 {
		return 0
	}
	if d > MaxRetryAfter {
		return MaxRetryAfter
	}
	return d
}
