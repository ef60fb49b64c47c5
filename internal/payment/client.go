package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Response is the terminal outcome of a paid call, after any payment
// round-trip has been resolved.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// Client issues requests against a payment-gated service. When the first
// attempt is met with a 402 challenge, it signs a proof and retries the
// request exactly once with the proof attached. A second 402 is returned
// to the caller as-is; we never pay twice for the same call.
type Client struct {
	baseURL    string
	signer     Signer
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func NewClient(baseURL string, signer Signer, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		signer:  signer,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// Post sends a JSON body to path, satisfying a payment challenge if one
// comes back. Non-2xx terminal responses are returned, not errors; err is
// reserved for transport and signing failures.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	resp, err := c.post(ctx, path, payload, "")
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusPaymentRequired {
		return resp, nil
	}

	var challenge ChallengeBody
	if err := json.Unmarshal(resp.Body, &challenge); err != nil {
		return nil, fmt.Errorf("decode payment challenge: %w", err)
	}
	c.logger.Debugw("payment required",
		"amount", challenge.Payment.Amount,
		"payTo", challenge.Payment.PayTo,
		"network", challenge.Payment.Network)

	proof, err := c.signer.Sign(ctx, &challenge.Payment)
	if err != nil {
		return nil, fmt.Errorf("sign payment: %w", err)
	}

	return c.post(ctx, path, payload, proof)
}

func (c *Client) post(ctx context.Context, path string, payload []byte, proof string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if proof != "" {
		req.Header.Set(ProofHeader, proof)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Body:    respBody,
	}, nil
}
