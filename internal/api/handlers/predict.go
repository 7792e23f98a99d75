package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/ticker-proxy/internal/apierr"
	"github.com/onnwee/ticker-proxy/internal/forecast"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/middleware"
	"github.com/onnwee/ticker-proxy/internal/tracing"
	"github.com/onnwee/ticker-proxy/internal/upstream"
	"github.com/onnwee/ticker-proxy/internal/utils"
)

const (
	// The forecaster fits on a year of daily bars. Sharing the history
	// namespace key means a predict call can ride on a chart the client
	// already loaded.
	predictPeriod   = "1y"
	predictInterval = "1d"
)

// GetPredict handles GET /stock/{symbol}/predict?days=N. It resolves a
// year of history through the governor, then fits a trend line forward.
func GetPredict(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetPredict")
		defer span.End()

		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			countRequest("/stock/predict", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.SymbolInvalid(err.Error()))
			return
		}

		days := forecast.DefaultHorizon
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > forecast.MaxHorizon {
				countRequest("/stock/predict", r.Method, http.StatusBadRequest)
				apierr.WriteErrorWithContext(w, r,
					apierr.ValidationInvalidValue("days", "must be an integer between 1 and 365"))
				return
			}
			days = parsed
		}

		span.SetAttributes(attribute.String("symbol", symbol), attribute.Int("days", days))

		key := historyKey(symbol, predictPeriod, predictInterval)
		res, err := gov.Resolve(ctx, governor.History, key, func(ctx context.Context) (any, error) {
			return md.History(ctx, symbol, predictPeriod, predictInterval)
		})
		if err != nil {
			writeResolveError(w, r, "/stock/predict", err, governor.History, symbol)
			return
		}

		history, ok := res.Value.(*upstream.History)
		if !ok {
			countRequest("/stock/predict", r.Method, http.StatusInternalServerError)
			apierr.WriteErrorWithContext(w, r, apierr.SystemInternal(""))
			return
		}

		prediction, ok := forecast.Predict(symbol, history, time.Now(), days)
		if !ok {
			countRequest("/stock/predict", r.Method, http.StatusUnprocessableEntity)
			apierr.WriteErrorWithContext(w, r, apierr.ForecastInsufficientData(symbol))
			return
		}

		countRequest("/stock/predict", r.Method, http.StatusOK)
		writeResult(w, r, governor.Result{Value: prediction, Stale: res.Stale})
	}
}
