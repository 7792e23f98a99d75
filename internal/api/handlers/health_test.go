package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest("GET", "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q", body["status"])
	}
}

func TestGetStatus(t *testing.T) {
	gov := testGovernor()
	handler := GetStatus(gov)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/status", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body struct {
		Status        string                    `json:"status"`
		UptimeSeconds int64                     `json:"uptime_seconds"`
		Namespaces    map[string]map[string]any `json:"namespaces"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q", body.Status)
	}
	if len(body.Namespaces) != 5 {
		t.Errorf("expected 5 namespaces, got %d", len(body.Namespaces))
	}
	for ns, stats := range body.Namespaces {
		if _, ok := stats["capacity"]; !ok {
			t.Errorf("namespace %s missing capacity", ns)
		}
		if _, ok := stats["quota"]; !ok {
			t.Errorf("namespace %s missing quota", ns)
		}
	}
}
