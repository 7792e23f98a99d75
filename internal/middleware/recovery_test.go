package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecoverWithSentry_Panic(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("quote handler exploded")
	}))

	req := httptest.NewRequest("GET", "/stock/AAPL", nil)
	rr := httptest.NewRecorder()

	// Must not propagate the panic
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", rr.Code)
	}
}

func TestRecoverWithSentry_PanicWithError(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	req := httptest.NewRequest("GET", "/stock/AAPL", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 after panic, got %d", rr.Code)
	}
}

func TestRecoverWithSentry_NoPanic(t *testing.T) {
	handler := RecoverWithSentry(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got %q", rr.Body.String())
	}
}
