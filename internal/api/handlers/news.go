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

// GetNews handles GET /stock/{symbol}/news.
func GetNews(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetNews")
		defer span.End()

		symbol := utils.SanitizeSymbol(mux.Vars(r)["symbol"])
		if err := middleware.ValidateSymbol(symbol); err != nil {
			countRequest("/stock/news", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.SymbolInvalid(err.Error()))
			return
		}

		span.SetAttributes(attribute.String("symbol", symbol))

		res, err := gov.Resolve(ctx, governor.News, symbol, func(ctx context.Context) (any, error) {
			return md.News(ctx, symbol)
		})
		if err != nil {
			writeResolveError(w, r, "/stock/news", err, governor.News, symbol)
			return
		}

		countRequest("/stock/news", r.Method, http.StatusOK)
		writeResult(w, r, res)
	}
}
