package payment

import (
	"context"
	"errors"
)

// Signer produces a payment proof satisfying a challenge. A real signer
// would construct and sign an on-chain authorization for the challenged
// amount; a StaticSigner replays a pre-funded proof from configuration.
type Signer interface {
	Sign(ctx context.Context, ch *Challenge) (string, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context, ch *Challenge) (string, error)

func (f SignerFunc) Sign(ctx context.Context, ch *Challenge) (string, error) {
	return f(ctx, ch)
}

// StaticSigner returns the same configured proof for every challenge.
type StaticSigner struct {
	Proof string
}

func (s *StaticSigner) Sign(_ context.Context, _ *Challenge) (string, error) {
	if s.Proof == "" {
		return "", errors.New("no payment proof configured")
	}
	return s.Proof, nil
}
