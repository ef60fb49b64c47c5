package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFacilitatorSettleSuccess(t *testing.T) {
	var got SettleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settle" {
			t.Errorf("expected /settle, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode settle request: %v", err)
		}
		w.Header().Set("X-Payment-Receipt", "rcpt-1")
		w.Header().Set("X-Payment-Tx", "0xabc")
		w.Header().Set("Date", "ignored")
		w.Write([]byte(`{"settled":true}`))
	}))
	defer srv.Close()

	client := NewFacilitatorClient(srv.URL)
	result, err := client.Settle(context.Background(), SettleRequest{
		ResourceURL: "http://localhost:3000/broadcast",
		Method:      http.MethodPost,
		Proof:       "proof-1",
		PayTo:       "0x1111111111111111111111111111111111111111",
		Network:     "Monad",
		ChainID:     10143,
		Price:       "$0.01",
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", result.Status)
	}
	if got.Proof != "proof-1" {
		t.Errorf("expected proof forwarded, got %q", got.Proof)
	}
	if result.Headers.Get("X-Payment-Receipt") != "rcpt-1" {
		t.Error("expected payment receipt header to be kept")
	}
	if result.Headers.Get("X-Payment-Tx") != "0xabc" {
		t.Error("expected payment tx header to be kept")
	}
	if result.Headers.Get("Date") != "" {
		t.Error("expected transport headers to be dropped")
	}
}

func TestFacilitatorSettleDenial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"invalid proof"}`))
	}))
	defer srv.Close()

	client := NewFacilitatorClient(srv.URL)
	result, err := client.Settle(context.Background(), SettleRequest{Proof: "bad"})
	if err != nil {
		t.Fatalf("a denial is not an error: %v", err)
	}
	if result.Status != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", result.Status)
	}
	if string(result.Body) != `{"error":"invalid proof"}` {
		t.Errorf("expected denial body verbatim, got %s", result.Body)
	}
}

func TestFacilitatorUnreachableIsTypedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewFacilitatorClient(srv.URL)
	_, err := client.Settle(context.Background(), SettleRequest{Proof: "p"})
	if err == nil {
		t.Fatal("expected error for unreachable facilitator")
	}

	var fe *FacilitatorError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FacilitatorError, got %T", err)
	}
	if fe.Op != "settle" {
		t.Errorf("expected op settle, got %q", fe.Op)
	}
	if fe.Unwrap() == nil {
		t.Error("expected wrapped cause")
	}
}
