package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

func TestInstrumentPreservesResponse(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Instrument)
	r.HandleFunc("/stock/{symbol}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("body"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/stock/AAPL", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status passthrough, got %d", rec.Code)
	}
	if rec.Body.String() != "body" {
		t.Fatalf("expected body passthrough, got %q", rec.Body.String())
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	sr.Write([]byte("implicit 200"))
	if sr.status != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", sr.status)
	}
	sr.WriteHeader(http.StatusBadGateway)
	if sr.status != http.StatusBadGateway {
		t.Fatalf("expected recorded 502, got %d", sr.status)
	}
}
