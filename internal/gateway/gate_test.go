package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mocktest "meshworks/meshgate/internal/testing"

	"meshworks/meshgate/internal/payment"
)

// recordingFacilitator captures Settle calls and plays back a canned result
type recordingFacilitator struct {
	calls  []payment.SettleRequest
	result *payment.SettleResult
	err    error
}

func (f *recordingFacilitator) Settle(ctx context.Context, req payment.SettleRequest) (*payment.SettleResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestGateChallengeWithoutProof(t *testing.T) {
	cfg := mocktest.DefaultTestConfig()
	fac := &recordingFacilitator{}
	gate := NewGate(cfg, fac)

	req := httptest.NewRequest(http.MethodPost, "/broadcast", strings.NewReader(`{"message":"hi"}`))
	outcome := gate.Evaluate(req)

	if outcome.Allowed {
		t.Fatal("expected request without proof to be denied")
	}
	if outcome.Status != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", outcome.Status)
	}
	if len(fac.calls) != 0 {
		t.Fatalf("facilitator must not be called without a proof, got %d calls", len(fac.calls))
	}

	var body payment.ChallengeBody
	if err := json.Unmarshal(outcome.Body, &body); err != nil {
		t.Fatalf("challenge body is not JSON: %v", err)
	}
	if body.Error != "Payment required" {
		t.Errorf("unexpected error field: %q", body.Error)
	}
	if body.Payment.Amount != cfg.Payment.Price {
		t.Errorf("expected amount %q, got %q", cfg.Payment.Price, body.Payment.Amount)
	}
	if body.Payment.PayTo != cfg.Payment.PayTo {
		t.Errorf("expected payTo %q, got %q", cfg.Payment.PayTo, body.Payment.PayTo)
	}
	if body.Payment.ChainID != cfg.Payment.ChainID {
		t.Errorf("expected chainId %d, got %d", cfg.Payment.ChainID, body.Payment.ChainID)
	}
	if !strings.HasSuffix(body.Payment.ResourceURL, "/broadcast") {
		t.Errorf("resource URL should target the requested path, got %q", body.Payment.ResourceURL)
	}
}

func TestGateSettlesWithProof(t *testing.T) {
	cfg := mocktest.DefaultTestConfig()
	headers := http.Header{}
	headers.Set("X-Payment-Receipt", "rcpt-123")
	fac := &recordingFacilitator{
		result: &payment.SettleResult{Status: http.StatusOK, Headers: headers},
	}
	gate := NewGate(cfg, fac)

	req := httptest.NewRequest(http.MethodPost, "/broadcast", nil)
	req.Header.Set(payment.ProofHeader, "proof-abc")
	outcome := gate.Evaluate(req)

	if !outcome.Allowed {
		t.Fatalf("expected settled request to be allowed, got status %d", outcome.Status)
	}
	if got := outcome.Headers.Get("X-Payment-Receipt"); got != "rcpt-123" {
		t.Errorf("expected receipt header to pass through, got %q", got)
	}

	if len(fac.calls) != 1 {
		t.Fatalf("expected exactly one settle call, got %d", len(fac.calls))
	}
	call := fac.calls[0]
	if call.Proof != "proof-abc" {
		t.Errorf("expected proof to be forwarded, got %q", call.Proof)
	}
	if call.Price != cfg.Payment.Price {
		t.Errorf("expected price %q, got %q", cfg.Payment.Price, call.Price)
	}
	if call.MaxTimeoutSeconds != payment.RouteMaxTimeout {
		t.Errorf("expected maxTimeoutSeconds %d, got %d", payment.RouteMaxTimeout, call.MaxTimeoutSeconds)
	}
}

func TestGateDenialPassedThroughVerbatim(t *testing.T) {
	cfg := mocktest.DefaultTestConfig()
	fac := &recordingFacilitator{
		result: &payment.SettleResult{
			Status: http.StatusPaymentRequired,
			Body:   []byte(`{"error":"payment already consumed"}`),
		},
	}
	gate := NewGate(cfg, fac)

	req := httptest.NewRequest(http.MethodPost, "/broadcast", nil)
	req.Header.Set(payment.ProofHeader, "replayed-proof")
	outcome := gate.Evaluate(req)

	if outcome.Allowed {
		t.Fatal("expected replayed proof to be denied")
	}
	if outcome.Status != http.StatusPaymentRequired {
		t.Fatalf("expected facilitator status to pass through, got %d", outcome.Status)
	}
	if string(outcome.Body) != `{"error":"payment already consumed"}` {
		t.Errorf("expected facilitator body verbatim, got %s", outcome.Body)
	}
}

func TestGateFacilitatorUnreachable(t *testing.T) {
	cfg := mocktest.DefaultTestConfig()
	fac := &recordingFacilitator{
		err: &payment.FacilitatorError{Op: "settle", Err: errors.New("connection refused")},
	}
	gate := NewGate(cfg, fac)

	req := httptest.NewRequest(http.MethodPost, "/broadcast", nil)
	req.Header.Set(payment.ProofHeader, "proof-abc")
	outcome := gate.Evaluate(req)

	if outcome.Allowed {
		t.Fatal("expected request to be denied when facilitator is down")
	}
	if outcome.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for facilitator transport failure, got %d", outcome.Status)
	}

	var body map[string]string
	if err := json.Unmarshal(outcome.Body, &body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body["error"] != "Payment verification failed" {
		t.Errorf("unexpected error field: %q", body["error"])
	}
	if body["message"] == "" {
		t.Error("expected message field with failure detail")
	}
}

func TestGateMiddleware(t *testing.T) {
	cfg := mocktest.DefaultTestConfig()
	headers := http.Header{}
	headers.Set("X-Payment-Receipt", "rcpt-456")
	fac := &recordingFacilitator{
		result: &payment.SettleResult{Status: http.StatusOK, Headers: headers},
	}
	gate := NewGate(cfg, fac)

	backendHit := false
	handler := gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendHit = true
		w.WriteHeader(http.StatusOK)
	}))

	// No proof: backend must not be reached
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/broadcast", nil))
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
	if backendHit {
		t.Fatal("backend reached without payment")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON challenge, got content type %q", ct)
	}

	// With proof: settled, receipt forwarded, backend reached
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/broadcast", nil)
	req.Header.Set(payment.ProofHeader, "proof-abc")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !backendHit {
		t.Fatal("backend not reached after settlement")
	}
	if got := rec.Header().Get("X-Payment-Receipt"); got != "rcpt-456" {
		t.Errorf("expected receipt header on response, got %q", got)
	}
}
