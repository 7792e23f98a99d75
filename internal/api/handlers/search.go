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
)

// GetSearch handles GET /search/{query} for symbol lookup.
func GetSearch(gov *governor.Governor, md MarketData) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "handlers.GetSearch")
		defer span.End()

		query := middleware.SanitizeString(mux.Vars(r)["query"], middleware.MaxQueryLength)
		if query == "" {
			countRequest("/search", r.Method, http.StatusBadRequest)
			apierr.WriteErrorWithContext(w, r, apierr.ValidationMissingField("query"))
			return
		}

		span.SetAttributes(attribute.String("search_query", query))

		// Cache keys are case-insensitive; AAPL and aapl share a budget.
		key := strings.ToLower(query)
		res, err := gov.Resolve(ctx, governor.Search, key, func(ctx context.Context) (any, error) {
			return md.Search(ctx, query)
		})
		if err != nil {
			writeResolveError(w, r, "/search", err, governor.Search, query)
			return
		}

		countRequest("/search", r.Method, http.StatusOK)
		writeResult(w, r, res)
	}
}
