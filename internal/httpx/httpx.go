// Package httpx performs upstream HTTP calls with bounded exponential-backoff
// retries. Only throttling (429) and transport failures are retried; any
// other non-2xx response is handed straight back for classification, since
// retrying a 404 will not make the symbol exist.
package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/onnwee/ticker-proxy/internal/config"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/logger"
	"github.com/onnwee/ticker-proxy/internal/metrics"
)

// RetryPolicy bounds one logical upstream call. Call sites differ in how
// aggressive they are (the chart endpoints give up sooner than the shared
// search/news path) but all follow the same doubling schedule.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// Backoff returns the delay before retrying after the given attempt,
// indexed from 0: InitialDelay, 2×, 4×, ...
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.InitialDelay * (1 << attempt)
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// AttemptInfo describes a single attempt outcome.
type AttemptInfo struct {
	Attempt int
	Method  string
	URL     string
	Status  int
	Err     error
	Wait    time.Duration
}

// Observer callback to report attempt telemetry.
type Observer func(info AttemptInfo)

// DoWithRetry wraps an HTTP request in the retry policy. The request is
// rebuilt per attempt via build so bodies and headers stay fresh. The
// returned response may carry any non-429 status; callers classify it.
// Backoff waits are context-aware and never hold any lock.
func DoWithRetry(ctx context.Context, client *http.Client, policy RetryPolicy, build func() (*http.Request, error)) (*http.Response, error) {
	return DoWithRetryObs(ctx, client, policy, build, nil)
}

// DoWithRetryObs is like DoWithRetry but reports attempts to an observer.
func DoWithRetryObs(ctx context.Context, client *http.Client, policy RetryPolicy, build func() (*http.Request, error), obs Observer) (*http.Response, error) {
	policy = policy.normalized()
	logRetries := config.Load().LogHTTPRetries

	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		resp, err := client.Do(req)
		if err != nil {
			metrics.UpstreamRequests.WithLabelValues("error").Inc()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Err: err})
				return nil, err
			}
			if attempt == policy.MaxAttempts-1 {
				if logRetries {
					logger.Warn("upstream transport failure, no more retries",
						"attempt", attempt, "url", req.URL.String(), "error", err)
				}
				report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Err: err})
				return nil, governor.Transport(err)
			}
			wait := policy.Backoff(attempt)
			report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Err: err, Wait: wait})
			if err := backoff(ctx, wait, logRetries, req, attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			// 2xx is success; any other status is surfaced immediately
			// for classification — a retry cannot improve it.
			metrics.UpstreamRequests.WithLabelValues("success").Inc()
			if logRetries && attempt > 0 {
				logger.Info("upstream request succeeded after retries",
					"attempt", attempt, "url", req.URL.String(), "status", resp.StatusCode)
			}
			report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Status: resp.StatusCode})
			return resp, nil
		}

		// Throttled by the upstream.
		resp.Body.Close()
		metrics.UpstreamRequests.WithLabelValues("throttled").Inc()
		if attempt == policy.MaxAttempts-1 {
			if logRetries {
				logger.Warn("upstream kept throttling, giving up",
					"attempt", attempt, "url", req.URL.String())
			}
			report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Status: resp.StatusCode})
			return nil, governor.MaxRetries()
		}
		wait := policy.Backoff(attempt)
		report(obs, AttemptInfo{Attempt: attempt, Method: req.Method, URL: req.URL.String(), Status: resp.StatusCode, Wait: wait})
		if err := backoff(ctx, wait, logRetries, req, attempt); err != nil {
			return nil, err
		}
	}
	return nil, governor.MaxRetries()
}

// backoff suspends for the given wait, aborting early if ctx is cancelled.
func backoff(ctx context.Context, wait time.Duration, logRetries bool, req *http.Request, attempt int) error {
	metrics.UpstreamRetries.Inc()
	metrics.UpstreamBackoffWaits.Observe(wait.Seconds())
	if logRetries {
		logger.Debug("backing off before retry",
			"attempt", attempt, "wait", wait.String(), "url", req.URL.String())
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func report(obs Observer, info AttemptInfo) {
	if obs != nil {
		obs(info)
	}
}
