// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the E-utilities client.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff delay after an HTTP 429. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// MaxRetryAfter caps the delay a server may request through Retry-After.
var MaxRetryAfter = 30 * time.Second

const defaultMaxRetries = 5

// DoWithRetry executes req and retries on HTTP 429 (Too Many Requests).
// NCBI answers 429 once a caller exceeds 3 requests/s (10 with an API key).
//
// The wait honors a Retry-After header given in seconds; otherwise it starts
// at RetryBaseDelay and doubles each attempt. When maxRetries is 0 the
// default (5) is used. If ctx is cancelled during a wait the function returns
// ctx.Err(). After exhausting retries the last 429 response is returned so
// the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait <= 0 {
			wait = RetryBaseDelay << attempt
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		slog.DebugContext(ctx, "rate limited",
			"url", req.URL.Redacted(), "wait", wait, "attempt", attempt+1, "max_retries", maxRetries)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryAfter parses a Retry-After value in seconds. HTTP-date values and
// garbage yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d
}
