package errorreporting

import (
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/onnwee/ticker-proxy/internal/config"
)

func TestInit_NoDSN(t *testing.T) {
	if err := Init(&config.Config{}); err != nil {
		t.Fatalf("Init without DSN should not error: %v", err)
	}
	if IsSentryEnabled() {
		t.Error("Sentry should be disabled without a DSN")
	}
}

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name  string
		input string
		safe  []string // substrings that must survive
		gone  []string // substrings that must be redacted
	}{
		{
			name:  "email address",
			input: "fetch failed for user alice@example.com on symbol AAPL",
			safe:  []string{"fetch failed", "AAPL"},
			gone:  []string{"alice@example.com"},
		},
		{
			name:  "bearer token",
			input: "request denied: bearer abcdef1234567890abcdef1234567890",
			safe:  []string{"request denied"},
			gone:  []string{"abcdef1234567890abcdef1234567890"},
		},
		{
			name:  "api key assignment",
			input: `config dump: api_key="sk_live_abcdef123456789012345"`,
			safe:  []string{"config dump"},
			gone:  []string{"sk_live_abcdef123456789012345"},
		},
		{
			name:  "ip address",
			input: "upstream connect to 203.0.113.7 refused",
			safe:  []string{"upstream connect", "refused"},
			gone:  []string{"203.0.113.7"},
		},
		{
			name:  "clean text untouched",
			input: "quote resolve failed for AAPL: max retries",
			safe:  []string{"quote resolve failed for AAPL: max retries"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScrubPII(tt.input)
			for _, s := range tt.safe {
				if !strings.Contains(got, s) {
					t.Errorf("expected %q to survive scrubbing, got %q", s, got)
				}
			}
			for _, s := range tt.gone {
				if strings.Contains(got, s) {
					t.Errorf("expected %q to be redacted, got %q", s, got)
				}
			}
		})
	}
}

func TestBeforeSend_ScrubsRequestData(t *testing.T) {
	event := &sentry.Event{
		Message: "caller at 192.168.1.1 hit the limit",
		Request: &sentry.Request{
			Headers: map[string]string{
				"Authorization": "Bearer secret",
				"Cookie":        "session=abc",
				"X-Api-Key":     "key123",
				"Accept":        "application/json",
			},
			QueryString: "token=secret",
		},
		Extra: map[string]interface{}{
			"note": "reach admin at ops@example.com",
			"n":    42,
		},
	}

	got := beforeSend(event, nil)

	if strings.Contains(got.Message, "192.168.1.1") {
		t.Error("message IP not scrubbed")
	}
	for _, h := range []string{"Authorization", "Cookie", "X-Api-Key"} {
		if _, ok := got.Request.Headers[h]; ok {
			t.Errorf("header %s not removed", h)
		}
	}
	if _, ok := got.Request.Headers["Accept"]; !ok {
		t.Error("benign header should survive")
	}
	if got.Request.QueryString != "" {
		t.Error("query string not cleared")
	}
	if extra, _ := got.Extra["note"].(string); strings.Contains(extra, "ops@example.com") {
		t.Error("extra email not scrubbed")
	}
}

func TestCaptureError_NilSafe(t *testing.T) {
	// Must not panic when Sentry is disabled or the error is nil
	CaptureError(nil)
	CaptureErrorWithContext(nil, map[string]string{"k": "v"}, nil)
}

func TestValidateDSN(t *testing.T) {
	if err := ValidateDSN("https://key@sentry.example.com/1"); err != nil {
		t.Errorf("valid DSN rejected: %v", err)
	}
	if err := ValidateDSN("not-a-dsn"); err == nil {
		t.Error("invalid DSN accepted")
	}
}
