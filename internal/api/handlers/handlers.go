// Package handlers implements the HTTP endpoints. Every market-data
// handler goes through the governor, so caching, quota accounting and
// stale fallback behave identically across endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/onnwee/ticker-proxy/internal/apierr"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/logger"
	"github.com/onnwee/ticker-proxy/internal/metrics"
	"github.com/onnwee/ticker-proxy/internal/upstream"
)

// DataSourceHeader tells clients whether they got a live value or a stale
// cache entry served under pressure.
const DataSourceHeader = "X-Data-Source"

// MarketData abstracts the upstream client for testability.
type MarketData interface {
	Search(ctx context.Context, query string) (*upstream.SearchResult, error)
	Quote(ctx context.Context, symbol string) (*upstream.Quote, error)
	History(ctx context.Context, symbol, period, interval string) (*upstream.History, error)
	Live(ctx context.Context, symbol string) (*upstream.LivePrice, error)
	News(ctx context.Context, symbol string) (*upstream.NewsList, error)
}

// writeResult writes a resolved value with the freshness header set.
func writeResult(w http.ResponseWriter, r *http.Request, res governor.Result) {
	if res.Stale {
		w.Header().Set(DataSourceHeader, "stale")
	} else {
		w.Header().Set(DataSourceHeader, "fresh")
	}
	writeJSON(w, r, http.StatusOK, res.Value)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.ErrorContext(r.Context(), "Failed to encode response", "error", err, "path", r.URL.Path)
	}
}

// writeResolveError translates a resolution failure, logs it, and bumps the
// endpoint counter with the mapped status.
func writeResolveError(w http.ResponseWriter, r *http.Request, endpoint string, err error, ns governor.Namespace, symbol string) {
	apiErr := apierr.FromResolve(err, string(ns), symbol)
	logger.WarnContext(r.Context(), "Resolve failed",
		"endpoint", endpoint,
		"namespace", string(ns),
		"key", symbol,
		"kind", governor.KindOf(err).String(),
		"error", err,
	)
	countRequest(endpoint, r.Method, apiErr.Status())
	apierr.WriteErrorWithContext(w, r, apiErr)
}

func countRequest(endpoint, method string, status int) {
	metrics.APIRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
}
