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
)

// SettleRequest is submitted to the facilitator for combined verification
// and settlement. Replay protection for an already-consumed proof is the
// facilitator's responsibility, not ours.
type SettleRequest struct {
	ResourceURL       string `json:"resourceUrl"`
	Method            string `json:"method"`
	Proof             string `json:"paymentData"`
	PayTo             string `json:"payTo"`
	Network           string `json:"network"`
	ChainID           int    `json:"chainId"`
	Price             string `json:"price"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
}

// SettleResult is the facilitator's verdict. Status 200 means the payment
// is valid and funds have moved; any other status is a denial whose body
// carries a machine-readable reason.
type SettleResult struct {
	Status  int
	Headers http.Header
	Body    []byte
}

// FacilitatorError reports that the facilitator could not be reached at
// all, as opposed to a denial it returned. The distinction drives client
// retry logic: a denial invites resubmission with payment, a transport
// failure does not.
type FacilitatorError struct {
	Op  string
	Err error
}

func (e *FacilitatorError) Error() string {
	return fmt.Sprintf("facilitator %s: %v", e.Op, e.Err)
}

func (e *FacilitatorError) Unwrap() error {
	return e.Err
}

// Facilitator verifies a payment proof and settles it atomically.
type Facilitator interface {
	Settle(ctx context.Context, req SettleRequest) (*SettleResult, error)
}

// FacilitatorClient talks to the external facilitator service over HTTP.
// It is stateless and safe for concurrent use.
type FacilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewFacilitatorClient(baseURL string) *FacilitatorClient {
	return &FacilitatorClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxConnsPerHost:     32 * 2,
				MaxIdleConns:        32 * 2,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Settle submits the proof for verification and settlement. A non-nil
// error always means the facilitator was unreachable; denials come back as
// a SettleResult with a non-200 status.
func (c *FacilitatorClient) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &FacilitatorError{Op: "encode", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/settle", bytes.NewReader(body))
	if err != nil {
		return nil, &FacilitatorError{Op: "settle", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &FacilitatorError{Op: "settle", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FacilitatorError{Op: "settle", Err: err}
	}

	return &SettleResult{
		Status:  resp.StatusCode,
		Headers: receiptHeaders(resp.Header),
		Body:    respBody,
	}, nil
}

// receiptHeaders keeps only the facilitator's payment headers, dropping
// transport noise like Date and Content-Length.
func receiptHeaders(h http.Header) http.Header {
	out := http.Header{}
	for key, values := range h {
		if strings.HasPrefix(http.CanonicalHeaderKey(key), ReceiptHeaderPrefix) {
			for _, v := range values {
				out.Add(key, v)
			}
		}
	}
	return out
}
