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

// GetQuote handles GET /stock/{symbol} for the current snapshot.
func GetQuote(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetQuote")
		defer span.End()

		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			countRequest("/stock", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.SymbolInvalid(err.Error()))
			return
		}

		span.SetAttributes(attribute.String("symbol", symbol))

		res, err := gov.Resolve(ctx, governor.Stock, symbol, func(ctx context.Context) (any, error) {
			return md.Quote(ctx, symbol)
		})
		if err != nil {
			writeResolveError(w, r, "/stock", err, governor.Stock, symbol)
			return
		}

		countRequest("/stock", r.Method, http.StatusOK)
		writeResult(w, r, res)
	}
}
