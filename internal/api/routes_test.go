package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/ticker-proxy/internal/config"
	"github.com/onnwee/ticker-proxy/internal/governor"
	"github.com/onnwee/ticker-proxy/internal/upstream"
)

// fixedMarket returns canned values for every endpoint.
type fixedMarket struct{}

func (fixedMarket) Search(ctx context.Context, query string) (*upstream.SearchResult, error) {
	return &upstream.SearchResult{Suggestions: []upstream.Suggestion{{Symbol: "AAPL", Name: "Apple Inc."}}}, nil
}

func (fixedMarket) Quote(ctx context.Context, symbol string) (*upstream.Quote, error) {
	return &upstream.Quote{Symbol: symbol, Price: 189.5}, nil
}

func (fixedMarket) History(ctx context.Context, symbol, period, interval string) (*upstream.History, error) {
	return &upstream.History{Candles: []upstream.Candle{{Date: "2026-01-02", Close: 100}}}, nil
}

func (fixedMarket) Live(ctx context.Context, symbol string) (*upstream.LivePrice, error) {
	return &upstream.LivePrice{Symbol: symbol, Price: 189.5}, nil
}

func (fixedMarket) News(ctx context.Context, symbol string) (*upstream.NewsList, error) {
	return &upstream.NewsList{Items: []upstream.NewsItem{{Title: "headline"}}}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		EnableRateLimit: false,
		StreamInterval:  time.Second,
	}
}

func testRouterGovernor() *governor.Governor {
	table := make(map[governor.Namespace]governor.Limits)
	for _, ns := range governor.Namespaces() {
		table[ns] = governor.Limits{TTL: time.Minute, Capacity: 16, Quota: 16, Window: time.Minute}
	}
	return governor.New(table)
}

func TestRouter_Endpoints(t *testing.T) {
	r := NewRouter(testRouterConfig(), testRouterGovernor(), fixedMarket{})

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/status", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/search/apple", http.StatusOK},
		{"/stock/AAPL", http.StatusOK},
		{"/stock/AAPL/history", http.StatusOK},
		{"/stock/AAPL/live", http.StatusOK},
		{"/stock/AAPL/news", http.StatusOK},
		{"/stock/AAPL/predict", http.StatusUnprocessableEntity}, // one candle is not enough
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest("GET", tt.path, nil))
			if rr.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (body: %s)", tt.path, rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	r := NewRouter(testRouterConfig(), testRouterGovernor(), fixedMarket{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/stock/AAPL", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /stock/AAPL = %d, want 405", rr.Code)
	}
}

func TestRouter_RequestIDPropagates(t *testing.T) {
	r := NewRouter(testRouterConfig(), testRouterGovernor(), fixedMarket{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/stock/AAPL", nil))

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID on response")
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	r := NewRouter(testRouterConfig(), testRouterGovernor(), fixedMarket{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRouter_InboundRateLimit(t *testing.T) {
	cfg := testRouterConfig()
	cfg.EnableRateLimit = true
	cfg.RateLimitGlobal = 1
	cfg.RateLimitGlobalBurst = 1
	cfg.RateLimitPerIP = 100
	cfg.RateLimitPerIPBurst = 100

	r := NewRouter(cfg, testRouterGovernor(), fixedMarket{})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest("GET", "/stock/AAPL", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request = %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest("GET", "/stock/AAPL", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", second.Code)
	}

	// Health stays reachable even when the data routes are throttled.
	health := httptest.NewRecorder()
	r.ServeHTTP(health, httptest.NewRequest("GET", "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Errorf("healthz while throttled = %d, want 200", health.Code)
	}
}

func TestRouter_QuoteBody(t *testing.T) {
	r := NewRouter(testRouterConfig(), testRouterGovernor(), fixedMarket{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/stock/AAPL", nil))

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var q upstream.Quote
	if err := json.NewDecoder(rr.Body).Decode(&q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.Symbol != "AAPL" || q.Price != 189.5 {
		t.Errorf("quote = %+v", q)
	}
}
