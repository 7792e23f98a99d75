package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/ticker-proxy/internal/apierr"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/middleware"
	"github.com/onnwee/ticker-proxy/internal/tracing"
	"github.com/onnwee/ticker-proxy/internal/utils"
)

const (
	defaultPeriod   = "1mo"
	defaultInterval = "1d"
)

// historyKey builds the cache key for one (symbol, period, interval) tuple.
// Different ranges of the same symbol are distinct entries.
func historyKey(symbol, period, interval string) string {
	return strings.Join([]string{symbol, period, interval}, ":")
}

// GetHistory handles GET /stock/{symbol}/history?period=&interval=.
func GetHistory(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetHistory")
		defer span.End()

		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			countRequest("/stock/history", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.SymbolInvalid(err.Error()))
			return
		}

		period := r.URL.Query().Get("period")
		if period == "" {
			period = defaultPeriod
		}
		if err := middleware.ValidatePeriod(period); err != nil {
			countRequest("/stock/history", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("period", err.Error()))
			return
		}

		interval := r.URL.Query().Get("interval")
		if interval == "" {
			interval = defaultInterval
		}
		if err := middleware.ValidateInterval(interval); err != nil {
			countRequest("/stock/history", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.ValidationInvalidValue("interval", err.Error()))
			return
		}

		span.SetAttributes(
			attribute.String("symbol", symbol),
			attribute.String("period", period),
			attribute.String("interval", interval),
		)

		key := historyKey(symbol, period, interval)
		res, err := gov.Resolve(ctx, governor.History, key, func(ctx context.Context) (any, error) {
			return md.History(ctx, symbol, period, interval)
		})
		if err != nil {
			writeResolveError(w, r, "/stock/history", err, governor.History, symbol)
			return
		}

		countRequest("/stock/history", r.Method, http.StatusOK)
		writeResult(w, r, res)
	}
}
