package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/ticker-proxy/internal/apierr"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/middleware"
	"github.com/onnwee/ticker-proxy/internal/tracing"
	"github.com/onnwee/ticker-proxy/internal/utils"
)

// GetLive handles GET /stock/{symbol}/live. Same upstream call as the
// quote endpoint but a much shorter TTL, for pollers that only want the
// latest price.
func GetLive(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetLive")
		defer span.End()

		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			countRequest("/stock/live", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.SymbolInvalid(err.Error()))
			return
		}

		span.SetAttributes(attribute.String("symbol", symbol))

		res, err := gov.Resolve(ctx, governor.Live, symbol, func(ctx context.Context) (any, error) {
			return md.Live(ctx, symbol)
		})
		if err != nil {
			writeResolveError(w, r, "/stock/live", err, governor.Live, symbol)
			return
		}

		countRequest("/stock/live", r.Method, http.StatusOK)
		writeResult(w, r, res)
	}
}
