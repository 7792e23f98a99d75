package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	ResetForTest()
	// ensure defaults kick in with empty env
	os.Unsetenv("PORT")
	os.Unsetenv("UPSTREAM_USER_AGENT")
	os.Unsetenv("UPSTREAM_BASE_URL")
	os.Unsetenv("FETCH_MAX_ATTEMPTS")
	os.Unsetenv("STREAM_INTERVAL_MS")

	cfg := Load()
	if cfg.Port != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.UserAgent == "" {
		t.Fatalf("expected default UA, got empty")
	}
	if cfg.UpstreamBaseURL != "https://query1.finance.yahoo.com" {
		t.Fatalf("unexpected default base URL: %q", cfg.UpstreamBaseURL)
	}
	if cfg.FetchMaxAttempts != 5 {
		t.Fatalf("expected default fetch attempts=5, got %d", cfg.FetchMaxAttempts)
	}
	if cfg.StreamInterval != 5*time.Second {
		t.Fatalf("expected default stream interval 5s, got %v", cfg.StreamInterval)
	}
}

func TestLoadNamespaceTable(t *testing.T) {
	ResetForTest()
	cfg := Load()
	for _, name := range []string{"search", "stock", "history", "live", "news"} {
		ns, ok := cfg.Namespaces[name]
		if !ok {
			t.Fatalf("missing namespace %q", name)
		}
		if ns.TTL <= 0 || ns.Capacity <= 0 || ns.Quota <= 0 || ns.Window <= 0 {
			t.Fatalf("namespace %q has non-positive parameters: %+v", name, ns)
		}
	}
	if got := cfg.Namespaces["live"]; got.TTL != 30*time.Second || got.Quota != 60 {
		t.Fatalf("unexpected live defaults: %+v", got)
	}
	if got := cfg.Namespaces["news"]; got.Quota != 10 {
		t.Fatalf("expected news quota=10, got %d", got.Quota)
	}
}

func TestLoadNamespaceOverrides(t *testing.T) {
	ResetForTest()
	t.Setenv("CACHE_TTL_STOCK_S", "120")
	t.Setenv("CACHE_MAX_STOCK", "42")
	t.Setenv("RATE_QUOTA_SEARCH", "7")
	t.Setenv("RATE_WINDOW_SEARCH_S", "30")

	cfg := Load()
	if got := cfg.Namespaces["stock"]; got.TTL != 120*time.Second || got.Capacity != 42 {
		t.Fatalf("stock overrides not applied: %+v", got)
	}
	if got := cfg.Namespaces["search"]; got.Quota != 7 || got.Window != 30*time.Second {
		t.Fatalf("search overrides not applied: %+v", got)
	}
	// other namespaces keep their defaults
	if got := cfg.Namespaces["history"]; got.Quota != 30 {
		t.Fatalf("history quota changed unexpectedly: %d", got.Quota)
	}

	ResetForTest() // don't leak overrides into later Load() callers
}

func TestLoadCaches(t *testing.T) {
	ResetForTest()
	first := Load()
	t.Setenv("PORT", "9999")
	second := Load()
	if first != second {
		t.Fatalf("expected Load to return the cached config")
	}
	if second.Port == "9999" {
		t.Fatalf("cached config should not pick up later env changes")
	}
	ResetForTest()
}
