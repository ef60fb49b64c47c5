package payment

import "net/http"

// ProofHeader carries the opaque payment-proof token on a gated request.
// Its absence is the deny-by-default condition.
const ProofHeader = "X-Payment"

// ReceiptHeaderPrefix marks facilitator-provided headers that prove
// settlement occurred. On Allow they are attached to the final response so
// the caller needs no second round trip.
const ReceiptHeaderPrefix = "X-Payment-"

// Routing metadata submitted to the facilitator with every settlement.
const (
	RouteDescription = "Broadcast message over Meshtastic network"
	RouteMimeType    = "application/json"
	RouteMaxTimeout  = 300
)

// Challenge describes what the caller must pay to access a resource.
type Challenge struct {
	Amount      string `json:"amount"`
	PayTo       string `json:"payTo"`
	Network     string `json:"network"`
	ChainID     int    `json:"chainId"`
	ResourceURL string `json:"resourceUrl,omitempty"`
	Method      string `json:"method,omitempty"`
}

// ChallengeBody is the JSON body of a 402 response.
type ChallengeBody struct {
	Error   string    `json:"error"`
	Message string    `json:"message"`
	Payment Challenge `json:"payment"`
}

// SettlementOutcome is the request-scoped result of evaluating a payment.
// Exactly one of the two shapes applies: Allowed carries receipt headers,
// Denied carries the status, headers and body to send back.
type SettlementOutcome struct {
	Allowed bool
	Status  int
	Headers http.Header
	Body    []byte
}

func Allow(headers http.Header) SettlementOutcome {
	return SettlementOutcome{Allowed: true, Headers: headers}
}

func Deny(status int, headers http.Header, body []byte) SettlementOutcome {
	return SettlementOutcome{Status: status, Headers: headers, Body: body}
}
