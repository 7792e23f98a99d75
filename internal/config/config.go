package config

import (
	"os"
	"strings"
	"time"

	"github.com/onnwee/ticker-proxy/internal/utils"
)

// NamespaceConfig holds the governance parameters for one cache/rate-limit
// namespace (search, stock, history, live, news).
type NamespaceConfig struct {
	TTL      time.Duration // freshness window for cached entries
	Capacity int           // max entries before oldest-by-insertion eviction
	Quota    int           // max upstream requests per Window
	Window   time.Duration // sliding-window length
}

// Config holds application configuration derived from environment variables.
type Config struct {
	Port      string
	UserAgent string

	// Upstream fetch settings
	UpstreamBaseURL string
	HTTPTimeout     time.Duration
	LogHTTPRetries  bool

	// Retry policies. The default policy matches the shared fetch helper of
	// the upstream client; chart fetches (quote, history) use a tighter one.
	FetchMaxAttempts int
	FetchRetryBase   time.Duration
	ChartMaxAttempts int
	ChartRetryBase   time.Duration

	// Per-namespace governance table
	Namespaces map[string]NamespaceConfig

	// Inbound API protection (server-side, distinct from upstream governance)
	RateLimitGlobal      float64  // requests per second globally
	RateLimitGlobalBurst int      // burst size for global rate limit
	RateLimitPerIP       float64  // requests per second per IP
	RateLimitPerIPBurst  int      // burst size for per-IP rate limit
	CORSAllowedOrigins   []string // allowed CORS origins
	EnableRateLimit      bool     // enable rate limiting middleware

	// Live streaming
	StreamInterval time.Duration // how often the websocket pushes live prices

	// Observability settings
	LogLevel          string  // log level: debug, info, warn, error
	OTELEnabled       bool    // enable OpenTelemetry tracing
	OTELEndpoint      string  // OpenTelemetry collector endpoint
	OTELSampleRate    float64 // trace sampling rate (0.0 to 1.0)
	SentryDSN         string  // Sentry DSN for error reporting
	SentryEnvironment string  // Sentry environment (dev, staging, production)
	SentryRelease     string  // Sentry release version
	SentrySampleRate  float64 // Sentry error sampling rate (0.0 to 1.0)
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	ua := os.Getenv("UPSTREAM_USER_AGENT")
	if strings.TrimSpace(ua) == "" {
		// Yahoo's unauthenticated endpoints reject requests without a
		// browser-looking User-Agent.
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	}
	baseURL := strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://query1.finance.yahoo.com"
	}
	cached = &Config{
		Port:            strings.TrimSpace(os.Getenv("PORT")),
		UserAgent:       ua,
		UpstreamBaseURL: strings.TrimRight(baseURL, "/"),
		HTTPTimeout:     time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 10000)) * time.Millisecond,
		LogHTTPRetries:  utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),

		FetchMaxAttempts: utils.GetEnvAsInt("FETCH_MAX_ATTEMPTS", 5),
		FetchRetryBase:   time.Duration(utils.GetEnvAsInt("FETCH_RETRY_BASE_MS", 2000)) * time.Millisecond,
		ChartMaxAttempts: utils.GetEnvAsInt("CHART_MAX_ATTEMPTS", 3),
		ChartRetryBase:   time.Duration(utils.GetEnvAsInt("CHART_RETRY_BASE_MS", 2000)) * time.Millisecond,

		Namespaces: loadNamespaces(),

		// Security settings with sensible defaults
		RateLimitGlobal:      utils.GetEnvAsFloat("RATE_LIMIT_GLOBAL", 100.0),
		RateLimitGlobalBurst: utils.GetEnvAsInt("RATE_LIMIT_GLOBAL_BURST", 200),
		RateLimitPerIP:       utils.GetEnvAsFloat("RATE_LIMIT_PER_IP", 10.0),
		RateLimitPerIPBurst:  utils.GetEnvAsInt("RATE_LIMIT_PER_IP_BURST", 20),
		EnableRateLimit:      utils.GetEnvAsBool("ENABLE_RATE_LIMIT", true),

		StreamInterval: time.Duration(utils.GetEnvAsInt("STREAM_INTERVAL_MS", 5000)) * time.Millisecond,

		// Observability settings
		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
		SentrySampleRate:  utils.GetEnvAsFloat("SENTRY_SAMPLE_RATE", 1.0),
	}
	if cached.Port == "" {
		cached.Port = "8000"
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}

	// Parse CORS allowed origins
	cached.CORSAllowedOrigins = utils.GetEnvAsSlice("CORS_ALLOWED_ORIGINS",
		[]string{"http://localhost:5173", "http://localhost:3000"}, ",")

	return cached
}

// namespaceDefaults is the static governance table. Search results are cheap
// to keep around (large capacity, long TTL), live prices churn fast (short
// TTL, generous quota), and news is the most upstream-expensive (tight quota).
var namespaceDefaults = map[string]NamespaceConfig{
	"search":  {TTL: 600 * time.Second, Capacity: 2000, Quota: 30, Window: 60 * time.Second},
	"stock":   {TTL: 60 * time.Second, Capacity: 500, Quota: 30, Window: 60 * time.Second},
	"history": {TTL: 300 * time.Second, Capacity: 200, Quota: 30, Window: 60 * time.Second},
	"live":    {TTL: 30 * time.Second, Capacity: 100, Quota: 60, Window: 60 * time.Second},
	"news":    {TTL: 300 * time.Second, Capacity: 100, Quota: 10, Window: 60 * time.Second},
}

// loadNamespaces returns the static table with optional per-namespace env
// overrides, e.g. CACHE_TTL_SEARCH_S, CACHE_MAX_SEARCH, RATE_QUOTA_SEARCH,
// RATE_WINDOW_SEARCH_S.
func loadNamespaces() map[string]NamespaceConfig {
	out := make(map[string]NamespaceConfig, len(namespaceDefaults))
	for name, def := range namespaceDefaults {
		key := strings.ToUpper(name)
		out[name] = NamespaceConfig{
			TTL:      utils.GetEnvAsSeconds("CACHE_TTL_"+key+"_S", def.TTL),
			Capacity: utils.GetEnvAsInt("CACHE_MAX_"+key, def.Capacity),
			Quota:    utils.GetEnvAsInt("RATE_QUOTA_"+key, def.Quota),
			Window:   utils.GetEnvAsSeconds("RATE_WINDOW_"+key+"_S", def.Window),
		}
	}
	return out
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
