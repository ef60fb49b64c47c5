package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"meshworks/meshgate/internal/config"
	"meshworks/meshgate/internal/core"
	"meshworks/meshgate/internal/payment"
)

// Gate enforces payment on a route. Requests arriving without a proof are
// challenged immediately; requests carrying one are settled through the
// facilitator before the backend ever sees them.
type Gate struct {
	cfg         *config.Configuration
	facilitator payment.Facilitator
}

func NewGate(cfg *config.Configuration, f payment.Facilitator) *Gate {
	return &Gate{cfg: cfg, facilitator: f}
}

func (g *Gate) challenge(r *http.Request) payment.Challenge {
	return payment.Challenge{
		Amount:      g.cfg.Payment.Price,
		PayTo:       g.cfg.Payment.PayTo,
		Network:     g.cfg.Payment.Network,
		ChainID:     g.cfg.Payment.ChainID,
		ResourceURL: strings.TrimSuffix(g.cfg.Gateway.URL, "/") + r.URL.Path,
		Method:      r.Method,
	}
}

// Evaluate decides whether r may proceed. The facilitator is consulted
// only when a proof is present; a bare request costs nothing upstream.
func (g *Gate) Evaluate(r *http.Request) payment.SettlementOutcome {
	log := core.WithRequest(core.GetLogger(), r.Method, r.URL.Path)

	proof := r.Header.Get(payment.ProofHeader)
	if proof == "" {
		log.Debugw("no payment proof, issuing challenge", "price", g.cfg.Payment.Price)
		body, _ := json.Marshal(payment.ChallengeBody{
			Error:   "Payment required",
			Message: "This endpoint requires payment of " + g.cfg.Payment.Price,
			Payment: g.challenge(r),
		})
		return payment.Deny(http.StatusPaymentRequired, nil, body)
	}

	result, err := g.facilitator.Settle(r.Context(), payment.SettleRequest{
		ResourceURL:       strings.TrimSuffix(g.cfg.Gateway.URL, "/") + r.URL.Path,
		Method:            r.Method,
		Proof:             proof,
		PayTo:             g.cfg.Payment.PayTo,
		Network:           g.cfg.Payment.Network,
		ChainID:           g.cfg.Payment.ChainID,
		Price:             g.cfg.Payment.Price,
		Description:       payment.RouteDescription,
		MimeType:          payment.RouteMimeType,
		MaxTimeoutSeconds: payment.RouteMaxTimeout,
	})
	if err != nil {
		var fe *payment.FacilitatorError
		if errors.As(err, &fe) {
			log.Errorw("facilitator unreachable", "error", fe.Err)
		} else {
			log.Errorw("settlement failed", "error", err)
		}
		body, _ := json.Marshal(map[string]string{
			"error":   "Payment verification failed",
			"message": err.Error(),
		})
		return payment.Deny(http.StatusInternalServerError, nil, body)
	}

	if result.Status != http.StatusOK {
		log.Infow("payment denied", "status", result.Status)
		return payment.Deny(result.Status, result.Headers, result.Body)
	}

	log.Infow("payment settled", "payTo", g.cfg.Payment.PayTo, "price", g.cfg.Payment.Price)
	return payment.Allow(result.Headers)
}

// Middleware wraps next with payment enforcement. Settlement receipt
// headers are attached to the backend response on the way out.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome := g.Evaluate(r)
		if !outcome.Allowed {
			for key, values := range outcome.Headers {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(outcome.Status)
			w.Write(outcome.Body)
			return
		}
		for key, values := range outcome.Headers {
			for _, v := range values {
				w.Header().Add(key, v)
			}
		}
		next.ServeHTTP(w, r)
	})
}
