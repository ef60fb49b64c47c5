package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	mocktest "meshworks/meshgate/internal/testing"

	"meshworks/meshgate/internal/payment"
)

func TestRelayForwardsToBackend(t *testing.T) {
	var gotHost, gotPath string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer backend.Close()

	relay, err := NewRelay(backend.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"healthy"}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if gotPath != "/health" {
		t.Errorf("expected /health at backend, got %s", gotPath)
	}
	u, _ := url.Parse(backend.URL)
	if gotHost != u.Host {
		t.Errorf("expected Host rewritten to %s, got %s", u.Host, gotHost)
	}
}

func TestRelayBackendUnavailable(t *testing.T) {
	// Point at a server that is already closed
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	relay, err := NewRelay(backend.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/broadcast", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] != "Backend unavailable" {
		t.Errorf("unexpected error field: %q", body["error"])
	}
	if body["message"] == "" {
		t.Error("expected message field with failure detail")
	}
}

func TestRelayPreservesBackendStatus(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"Message cannot be empty"}`))
	}))
	defer backend.Close()

	relay, err := NewRelay(backend.URL)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	relay.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/broadcast", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected backend 400 to pass through, got %d", rec.Code)
	}
	if rec.Body.String() != `{"detail":"Message cannot be empty"}` {
		t.Errorf("expected backend body verbatim, got %s", rec.Body.String())
	}
}

func TestHandlerRoutesHealthWithoutPayment(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer backend.Close()

	cfg := mocktest.DefaultTestConfig()
	cfg.Gateway.Backend = backend.URL

	fac := &recordingFacilitator{}
	handler, err := NewHandler(cfg, fac)
	if err != nil {
		t.Fatal(err)
	}

	// Health bypasses payment entirely
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected health passthrough, got %d", rec.Code)
	}
	if len(fac.calls) != 0 {
		t.Fatal("health check must not touch the facilitator")
	}

	// Broadcast without proof is challenged before it reaches the backend
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/broadcast", nil))
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 for unpaid broadcast, got %d", rec.Code)
	}

	var body payment.ChallengeBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("challenge body is not JSON: %v", err)
	}
	if body.Payment.Amount == "" {
		t.Error("expected challenge to carry the price")
	}
}
