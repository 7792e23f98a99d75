package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/onnwee/ticker-proxy/internal/api/handlers"
	"github.com/onnwee/ticker-proxy/internal/config"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/middleware"
)

// NewRouter builds the HTTP surface. All market-data routes run through
// the shared middleware chain; /healthz and /metrics sit outside the
// inbound rate limit so probes and scrapes never get throttled away.
func NewRouter(cfg *config.Config, gov *governor.Governor, md handlers.MarketData) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverWithSentry)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.NewCORSConfig(cfg.CORSAllowedOrigins)))

	// Ops endpoints
	r.HandleFunc("/healthz", handlers.Health).Methods("GET")
	r.HandleFunc("/status", handlers.GetStatus(gov)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// The stream bypasses Compress and ETag; a hijacked connection cannot
	// be buffered or wrapped.
	r.HandleFunc("/stock/{symbol}/stream", handlers.StreamLive(gov, md, cfg.StreamInterval)).Methods("GET")

	// Market data
	data := r.NewRoute().Subrouter()
	data.Use(middleware.Instrument)
	if cfg.EnableRateLimit {
		rl := middleware.NewRateLimiter(cfg.RateLimitGlobal, cfg.RateLimitGlobalBurst, cfg.RateLimitPerIP, cfg.RateLimitPerIPBurst)
		data.Use(rl.Limit)
	}
	data.Use(middleware.Compress)
	data.Use(middleware.ETag)

	data.HandleFunc("/search/{query}", handlers.GetSearch(gov, md)).Methods("GET")
	data.HandleFunc("/stock/{symbol}", handlers.GetQuote(gov, md)).Methods("GET")
	data.HandleFunc("/stock/{symbol}/history", handlers.GetHistory(gov, md)).Methods("GET")
	data.HandleFunc("/stock/{symbol}/live", handlers.GetLive(gov, md)).Methods("GET")
	data.HandleFunc("/stock/{symbol}/news", handlers.GetNews(gov, md)).Methods("GET")
	data.HandleFunc("/stock/{symbol}/predict", handlers.GetPredict(gov, md)).Methods("GET")

	return r
}
